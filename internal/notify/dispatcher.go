package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/lzande/pixel-sentinel/internal/report"
	"github.com/lzande/pixel-sentinel/internal/store"
	"github.com/lzande/pixel-sentinel/internal/util"
	"github.com/wneessen/go-mail"
)

// Sender delivers one message to one recipient
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail over SMTP with implicit TLS
type SMTPSender struct {
	cfg   SMTPConfig
	retry *util.RetryConfig
}

// NewSMTPSender creates a sender for the given server settings
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		cfg:   cfg,
		retry: util.DefaultRetryConfig(),
	}
}

// Send delivers one message, retrying transient network failures
func (s *SMTPSender) Send(to, subject, body string) error {
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithSSL(),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	err = util.Retry(s.retry, func() error {
		return client.DialAndSend(msg)
	}, "send mail to "+to)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrDelivery, err)
	}
	return nil
}

// Dispatcher resolves album subscribers and delivers one alert per unique
// subscriber. A failed delivery never blocks the remaining recipients.
type Dispatcher struct {
	store     *store.Store
	sender    Sender
	events    *report.EventLogger
	sendDelay time.Duration
}

// Config holds dispatcher configuration
type Config struct {
	Store     *store.Store
	Sender    Sender
	Events    *report.EventLogger
	SendDelay time.Duration // pause between deliveries, zero for none
}

// New creates a new Dispatcher
func New(cfg *Config) *Dispatcher {
	return &Dispatcher{
		store:     cfg.Store,
		sender:    cfg.Sender,
		events:    cfg.Events,
		sendDelay: cfg.SendDelay,
	}
}

// Subject is the alert subject line
const Subject = "PixelSentinel: New Photo(s) Added"

// Body formats the alert message for one subscriber
func Body(name, album string, count int, at time.Time) string {
	sent := at.Format("01/02/2006 at 3:04 PM")
	return fmt.Sprintf("%s, %d new photo(s) added to the album %s on %s.",
		name, count, album, sent)
}

// Dispatch sends alerts for the given album -> new-file counts.
// Returns the number of messages sent and the number that failed.
func (d *Dispatcher) Dispatch(newCounts map[string]int) (sent, failed int, err error) {
	albums := make([]string, 0, len(newCounts))
	for a := range newCounts {
		albums = append(albums, a)
	}
	sort.Strings(albums)

	for _, albumName := range albums {
		count := newCounts[albumName]

		subs, err := d.store.Subscribers(albumName)
		if err != nil {
			return sent, failed, fmt.Errorf("failed to resolve subscribers for %q: %w", albumName, err)
		}
		if len(subs) == 0 {
			util.DebugLog("No subscribers for album %q", albumName)
			continue
		}

		for _, sub := range subs {
			body := Body(sub.Name, albumName, count, time.Now())

			if err := d.sender.Send(sub.Email, Subject, body); err != nil {
				util.ErrorLog("Failed to notify %s <%s> about %q: %v",
					sub.Name, sub.Email, albumName, err)
				d.events.LogNotify(albumName, sub.Email, count, err)
				failed++
				continue
			}

			util.InfoLog("Alert sent to %s <%s> for album %q (%d new)",
				sub.Name, sub.Email, albumName, count)
			d.events.LogNotify(albumName, sub.Email, count, nil)
			sent++

			if d.sendDelay > 0 {
				time.Sleep(d.sendDelay)
			}
		}
	}

	return sent, failed, nil
}
