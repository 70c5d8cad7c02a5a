package mail

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/louweal/trusense-web-server/internal/config"
	"github.com/louweal/trusense-web-server/internal/logger"
	"github.com/louweal/trusense-web-server/internal/metrics"
)

// Mailer errors
var (
	ErrClosed    = errors.New("mail service is closed")
	ErrQueueFull = errors.New("mail queue is full")
)

// Service delivers alert emails over SMTP. Messages are queued on a buffered
// channel and drained by a single background goroutine that keeps the SMTP
// connection open between sends and closes it after an idle timeout. Enqueue
// never blocks ingestion; there is no delivery confirmation.
type Service struct {
	cfg    config.SMTPConfig
	mail   chan *gomail.Message
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewService creates a mail service. Call Open before enqueueing.
func NewService(cfg config.SMTPConfig) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Second
	}
	return &Service{
		cfg:  cfg,
		mail: make(chan *gomail.Message, cfg.QueueSize),
	}
}

// Open starts the background mailer.
func (s *Service) Open() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runMailer()
	}()
}

// Close stops the mailer after draining queued messages.
func (s *Service) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.mail)
	s.wg.Wait()
	return nil
}

// Enqueue hands a message to the mailer, fire-and-forget. A full queue
// rejects the message rather than blocking the caller.
func (s *Service) Enqueue(to, subject, body string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	select {
	case s.mail <- m:
		metrics.MailEnqueued.Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Service) dialer() *gomail.Dialer {
	if s.cfg.Username == "" {
		return &gomail.Dialer{Host: s.cfg.Host, Port: s.cfg.Port}
	}
	return gomail.NewPlainDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
}

func (s *Service) runMailer() {
	log := logger.WithComponent("mailer")
	d := s.dialer()

	var conn gomail.SendCloser
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	var err error
	open := false
	for {
		timer := time.NewTimer(s.cfg.IdleTimeout)
		select {
		case m, ok := <-s.mail:
			if !ok {
				timer.Stop()
				return
			}
			if !open {
				if conn, err = d.Dial(); err != nil {
					metrics.MailSendErrors.Inc()
					log.Error().
						Err(err).
						Str("host", s.cfg.Host).
						Msg("smtp dial failed, message dropped")
					break
				}
				open = true
			}
			if err := gomail.Send(conn, m); err != nil {
				metrics.MailSendErrors.Inc()
				log.Error().Err(err).Msg("smtp send failed")
			}

		// Close the connection if no email was sent in the last idle window.
		case <-timer.C:
			if open {
				if err := conn.Close(); err != nil {
					log.Warn().Err(err).Msg("error closing smtp connection")
				}
				open = false
			}
		}
		timer.Stop()
	}
}
