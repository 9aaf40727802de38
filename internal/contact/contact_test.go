package contact

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogermuhire/portfolio/internal/config"
	"github.com/rogermuhire/portfolio/internal/logger"
)

func testMailer(addr string) *Mailer {
	host, port, _ := net.SplitHostPort(addr)
	return NewMailer(config.MailConfig{
		Host:        host,
		Port:        port,
		From:        "your-email@example.com",
		To:          "recipient@example.com",
		Subject:     "New Contact Form Submission",
		DialTimeout: time.Second,
	}, logger.Nop())
}

func TestBody(t *testing.T) {
	got := Body(Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello\nthere"})
	assert.Equal(t, "Name: Alice\nEmail: alice@example.com\nMessage: Hello\nthere", got)
}

func TestComposeHeaders(t *testing.T) {
	m := testMailer("127.0.0.1:25")
	msg := string(m.Compose(Submission{Name: "Alice", Email: "alice@example.com", Message: "Hi"}))

	head, body, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, head, "From: your-email@example.com")
	assert.Contains(t, head, "To: recipient@example.com")
	assert.Contains(t, head, "Subject: New Contact Form Submission")
	assert.Contains(t, head, "Reply-To: <alice@example.com>")
	assert.Equal(t, "Name: Alice\nEmail: alice@example.com\nMessage: Hi\r\n", body)
}

func TestComposeSkipsUnparseableReplyTo(t *testing.T) {
	m := testMailer("127.0.0.1:25")
	msg := string(m.Compose(Submission{Name: "Mallory", Email: "x\r\nBcc: victim@example.com", Message: "Hi"}))

	head, _, _ := strings.Cut(msg, "\r\n\r\n")
	assert.NotContains(t, head, "Reply-To")
	assert.NotContains(t, head, "Bcc")
}

// fakeRelay accepts one SMTP session and returns the DATA payload.
func fakeRelay(t *testing.T) (string, <-chan string) {
	return fakeRelayQuitting(t, "221 bye")
}

// fakeRelayQuitting is fakeRelay with a chosen reply to QUIT.
func fakeRelayQuitting(t *testing.T, quitReply string) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	data := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 relay ready")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.Fields(line + " x")[0])
			switch verb {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250 relay")
			case "MAIL", "RCPT":
				_ = tp.PrintfLine("250 ok")
			case "DATA":
				_ = tp.PrintfLine("354 go ahead")
				b, _ := tp.ReadDotBytes()
				data <- string(b)
				_ = tp.PrintfLine("250 queued")
			case "QUIT":
				_ = tp.PrintfLine("%s", quitReply)
				return
			default:
				_ = tp.PrintfLine("502 unsupported")
			}
		}
	}()
	return ln.Addr().String(), data
}

func TestSendDeliversToRelay(t *testing.T) {
	addr, data := fakeRelay(t)
	m := testMailer(addr)

	err := m.Send(context.Background(), Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello"})
	require.NoError(t, err)

	select {
	case got := <-data:
		assert.Contains(t, got, "Subject: New Contact Form Submission")
		assert.Contains(t, got, "Name: Alice\nEmail: alice@example.com\nMessage: Hello")
	case <-time.After(2 * time.Second):
		t.Fatal("relay never received DATA")
	}
}

func TestSendAcceptedDataSurvivesFailedQuit(t *testing.T) {
	addr, data := fakeRelayQuitting(t, "421 closing")
	m := testMailer(addr)

	err := m.Send(context.Background(), Submission{Name: "Alice", Email: "alice@example.com", Message: "Hello"})
	require.NoError(t, err)

	select {
	case got := <-data:
		assert.Contains(t, got, "Name: Alice")
	case <-time.After(2 * time.Second):
		t.Fatal("relay never received DATA")
	}
}

func TestSendUnreachableRelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	err = testMailer(addr).Send(context.Background(), Submission{Name: "Alice"})
	assert.ErrorContains(t, err, "dial")
}

func TestSendRejectedRecipient(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 relay ready")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch {
			case strings.HasPrefix(line, "RCPT"):
				_ = tp.PrintfLine("550 no such user")
			case strings.HasPrefix(line, "QUIT"):
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("250 ok")
			}
		}
	}()

	err = testMailer(ln.Addr().String()).Send(context.Background(), Submission{Name: "Alice"})
	assert.ErrorContains(t, err, "rcpt")
}
