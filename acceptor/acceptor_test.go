package acceptor_test

import (
	"bufio"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/mshaverdo/radish/acceptor"
	"github.com/mshaverdo/radish/config"
	"github.com/mshaverdo/radish/core"
	"github.com/mshaverdo/radish/dispatcher"
	"github.com/mshaverdo/radish/snapshot"
)

// startTestServer finds a free port by briefly binding a probe listener to
// port 0, closes it, starts the acceptor on that port, and returns the
// address the acceptor listens on.
func startTestServer(t *testing.T) (addr string, shutdown func()) {
	t.Helper()

	cfg := config.Default()
	cfg.BindHost = "127.0.0.1"
	cfg.BindPort = 0
	cfg.PdbFile = filepath.Join(t.TempDir(), "dump.pdb")

	c := core.New()
	snap := snapshot.New(c, cfg)
	disp := dispatcher.New(c, snap)

	listener, err := net.Listen("tcp", cfg.BindHost+":0")
	if err != nil {
		t.Fatalf("net.Listen: %s", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	acc := acceptor.New(cfg.BindHost, port, disp)

	done := make(chan struct{})
	go func() {
		acc.ListenAndServe()
		close(done)
	}()

	// give the listener a moment to rebind before the client connects.
	time.Sleep(50 * time.Millisecond)

	addr = cfg.BindHost + ":" + strconv.Itoa(port)
	return addr, func() {
		acc.Shutdown()
		<-done
	}
}

func TestAcceptor_SetAndGet(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %s", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))
	writer := bufio.NewWriter(conn)
	reader := bufio.NewReader(conn)

	if _, err := writer.WriteString("*3\r\n$3\r\nSET\r\n$1\r\na\r\n$1\r\nb\r\n"); err != nil {
		t.Fatalf("write SET: %s", err)
	}
	writer.Flush()

	line, err := reader.ReadString('\n')
	if err != nil || line != "+OK\r\n" {
		t.Fatalf("SET reply = %q, %v; want +OK", line, err)
	}

	if _, err := writer.WriteString("*2\r\n$3\r\nGET\r\n$1\r\na\r\n"); err != nil {
		t.Fatalf("write GET: %s", err)
	}
	writer.Flush()

	header, err := reader.ReadString('\n')
	if err != nil || header != "$1\r\n" {
		t.Fatalf("GET header = %q, %v; want $1", header, err)
	}
	body, err := reader.ReadString('\n')
	if err != nil || body != "b\r\n" {
		t.Fatalf("GET body = %q, %v; want b", body, err)
	}
}

// TestAcceptor_ShutdownWithIdleConnection verifies that Shutdown returns
// even while a client is connected but not mid-command -- closing the
// listener alone wouldn't unblock that connection's pending conn.Read.
func TestAcceptor_ShutdownWithIdleConnection(t *testing.T) {
	addr, shutdown := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %s", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return with an idle connection open")
	}
}
