package email

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func TestBuildMessageHeaders(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	msg := buildMessage("from@example.com", "to@example.com", "Confirmed ✓", "line one\nline two", at)

	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatalf("missing header separator in %q", msg)
	}
	for _, want := range []string{
		"From: from@example.com",
		"To: to@example.com",
		"Subject: =?utf-8?q?",
		"Date: Mon, 02 Mar 2026 10:00:00 +0000",
		"Content-Type: text/plain; charset=utf-8",
	} {
		if !strings.Contains(head, want) {
			t.Fatalf("expected header %q in %q", want, head)
		}
	}
	if body != "line one\r\nline two\r\n" {
		t.Fatalf("expected CRLF body, got %q", body)
	}
}

// fakeSMTP accepts a single message and returns the DATA payload on the channel.
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		reply("220 fake ESMTP")
		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- data.String()
					reply("250 queued")
					continue
				}
				data.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 fake")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				reply("250 ok")
			case cmd == "DATA":
				inData = true
				reply("354 go ahead")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 not implemented")
			}
		}
	}()
	return ln.Addr().String(), out
}

func TestSMTPSenderDelivers(t *testing.T) {
	addr, out := fakeSMTP(t)
	host, port, _ := net.SplitHostPort(addr)

	s := NewSMTPSender(host, port, "")
	if err := s.Send(context.Background(), "dana@example.com", "Hello", "See you soon"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case data := <-out:
		if !strings.Contains(data, "From: "+defaultFrom) || !strings.Contains(data, "See you soon") {
			t.Fatalf("unexpected message %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}
}

func TestSMTPSenderDialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()
	host, port, _ := net.SplitHostPort(addr)

	if err := NewSMTPSender(host, port, "x@example.com").Send(context.Background(), "a@example.com", "s", "b"); err == nil {
		t.Fatal("expected dial error")
	}
}
