package mailer

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFallsBackToLogMailer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New("", 587, "", "", "no-reply@localhost", zap.New(core))

	require.IsType(t, &LogMailer{}, m)
	require.NoError(t, m.Send(context.Background(), Message{To: "ana@acme.test", Subject: "Your code"}))
	require.Equal(t, 1, logs.FilterField(zap.String("to", "ana@acme.test")).Len())
}

func TestNewUsesRelay(t *testing.T) {
	m := New("smtp.acme.test", 2525, "u", "p", "erp@acme.test", zap.NewNop())
	relay, ok := m.(*SMTPMailer)
	require.True(t, ok)
	require.Equal(t, 2525, relay.Port)
}

func TestSMTPMailerRequiresHost(t *testing.T) {
	err := (&SMTPMailer{}).Send(context.Background(), Message{To: "x@acme.test"})
	require.EqualError(t, err, "smtp host not configured")
}

func TestSMTPMailerGivesUpOnStalledRelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan struct{})
	t.Cleanup(func() {
		close(done)
		ln.Close()
	})
	go func() {
		// accept and never greet
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-done
		conn.Close()
	}()

	addr := ln.Addr().(*net.TCPAddr)
	m := &SMTPMailer{Host: "127.0.0.1", Port: addr.Port, From: "erp@acme.test", Timeout: 200 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = m.Send(ctx, Message{To: "ana@acme.test", Subject: "Your code", Body: "123456"})
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestSMTPMailerRejectsBadRecipient(t *testing.T) {
	m := &SMTPMailer{Host: "127.0.0.1", From: "erp@acme.test"}
	err := m.Send(context.Background(), Message{To: "not an address"})
	require.ErrorContains(t, err, "invalid recipient")
}
