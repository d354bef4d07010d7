package smtpgw

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/adapters/reader"
	"github.com/autou/email-triage/internal/core"
)

// Classification headers stamped on every relayed message.
const (
	headerCategory   = "X-Email-Categoria"
	headerConfidence = "X-Email-Confianca"
	headerModel      = "X-Email-Modelo"
	headerError      = "X-Email-Triage-Error"
)

// Gateway is an SMTP content filter: it accepts messages, classifies
// them and reinjects them upstream with classification headers added.
// Typically deployed between a mail server's pre-queue and post-queue
// listeners.
type Gateway struct {
	service      *core.TriageService
	eml          *reader.EmlReader
	logger       *zap.Logger
	listenAddr   string
	upstreamAddr string
	upstreamPort int
	server       *smtp.Server
}

// NewGateway creates a new SMTP gateway
func NewGateway(
	service *core.TriageService,
	eml *reader.EmlReader,
	logger *zap.Logger,
	listenAddr string,
	upstreamAddr string,
	upstreamPort int,
) *Gateway {
	return &Gateway{
		service:      service,
		eml:          eml,
		logger:       logger,
		listenAddr:   listenAddr,
		upstreamAddr: upstreamAddr,
		upstreamPort: upstreamPort,
	}
}

// Start starts the SMTP listener in a background goroutine.
func (g *Gateway) Start() error {
	g.server = smtp.NewServer(&smtpBackend{gateway: g})

	g.server.Addr = g.listenAddr
	g.server.Domain = "localhost"
	g.server.ReadTimeout = 30 * time.Second
	g.server.WriteTimeout = 30 * time.Second
	g.server.MaxMessageBytes = 30 * 1024 * 1024
	g.server.MaxRecipients = 50
	g.server.AllowInsecureAuth = true

	g.logger.Info("SMTP gateway starting", zap.String("address", g.listenAddr))

	go func() {
		if err := g.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				g.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP listener.
func (g *Gateway) Stop() error {
	if g.server != nil {
		return g.server.Close()
	}
	return nil
}

// relayUpstream reinjects the stamped message into the upstream SMTP
// listener.
func (g *Gateway) relayUpstream(sender string, recipients []string, data []byte) error {
	addr := fmt.Sprintf("%s:%d", g.upstreamAddr, g.upstreamPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect upstream: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			g.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			accepted = true
		}
	}
	if !accepted {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		g.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	gateway *Gateway
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		gateway:    b.gateway,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	gateway    *Gateway
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the gateway)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message and relays it upstream with the
// classification headers prepended. Classification failures never
// block mail flow; the message is relayed with an error header.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.gateway.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	text, err := s.gateway.eml.Read(rawData)
	if err != nil {
		// Unparseable body: classify the raw text instead.
		text = string(rawData)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var stamped bytes.Buffer
	result, classifyErr := s.gateway.service.ClassifyText(ctx, text, "")
	if classifyErr != nil {
		s.gateway.logger.Error("Failed to classify message",
			zap.Error(classifyErr),
			zap.String("sender", s.sender))
		fmt.Fprintf(&stamped, "%s: %s\r\n", headerError, classifyErr.Error())
	} else {
		fmt.Fprintf(&stamped, "%s: %s\r\n", headerCategory, result.Category)
		fmt.Fprintf(&stamped, "%s: %.4f\r\n", headerConfidence, result.Confidence)
		fmt.Fprintf(&stamped, "%s: %s\r\n", headerModel, result.ModelUsed)
	}
	stamped.Write(rawData)

	if err := s.gateway.relayUpstream(s.sender, s.recipients, stamped.Bytes()); err != nil {
		s.gateway.logger.Error("Failed to relay message upstream",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}

	if classifyErr == nil {
		s.gateway.logger.Info("Relayed classified message",
			zap.String("sender", s.sender),
			zap.String("categoria", string(result.Category)),
			zap.Float64("confianca", result.Confidence))
	}

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
