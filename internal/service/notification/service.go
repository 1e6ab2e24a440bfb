package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/shinagawa-clinic/reservation-api/internal/email"
	"github.com/shinagawa-clinic/reservation-api/pkg/logger"
	"github.com/shinagawa-clinic/reservation-api/pkg/token"
)

// ErrThrottled means a magic link was already sent to this address within
// the configured interval.
var ErrThrottled = errors.New("a link was sent to this address recently, please wait before requesting another")

const (
	formPath       = "/reservations/form/"
	reschedulePath = "/reservations/reschedule/"
)

// Service composes and sends the three transactional messages of the
// reservation flow. Sends are synchronous and best-effort; a failure never
// rolls back the state change that triggered it.
type Service struct {
	sender   email.Sender
	codec    *token.Codec
	baseURL  string
	throttle *cache.Cache
	interval time.Duration
	logger   *logger.Logger
}

func NewService(sender email.Sender, codec *token.Codec, baseURL string, linkInterval time.Duration, log *logger.Logger) *Service {
	return &Service{
		sender:   sender,
		codec:    codec,
		baseURL:  strings.TrimRight(baseURL, "/"),
		throttle: cache.New(linkInterval, 2*linkInterval),
		interval: linkInterval,
		logger:   log,
	}
}

// SendMagicLink issues a one-hour form-access token for the address and
// mails the link. At most one link per address per interval.
func (s *Service) SendMagicLink(ctx context.Context, to string) error {
	key := strings.ToLower(to)
	if _, found := s.throttle.Get(key); found {
		return ErrThrottled
	}

	tok, err := s.codec.Issue(map[string]string{"email": to}, token.PurposeMagicLink)
	if err != nil {
		return fmt.Errorf("failed to issue form token: %w", err)
	}

	link := s.baseURL + formPath + tok + "/"
	body := fmt.Sprintf(
		"Here is your link to the appointment request form (valid for 1 hour):\n\n%s\n\nIf you did not request this, please ignore this message.\n",
		link,
	)
	if err := s.sender.Send(ctx, to, "Appointment request form (link valid 1 hour)", body); err != nil {
		return err
	}

	s.throttle.Set(key, struct{}{}, s.interval)
	return nil
}

// SendConfirmation mails the confirmed appointment datetime.
func (s *Service) SendConfirmation(ctx context.Context, to, confirmedDatetime string) error {
	body := fmt.Sprintf(
		"Your appointment has been confirmed for:\n\n%s\n\nIf this time does not work for you, please contact the clinic.\n",
		confirmedDatetime,
	)
	return s.sender.Send(ctx, to, "Your appointment is confirmed", body)
}

// SendRescheduleRequest issues a fresh 48-hour token bound to the
// reservation and mails the re-submission link.
func (s *Service) SendRescheduleRequest(ctx context.Context, to, reservationID string) error {
	tok, err := s.codec.Issue(map[string]string{
		"email":          to,
		"reservation_id": reservationID,
	}, token.PurposeMagicLink)
	if err != nil {
		return fmt.Errorf("failed to issue reschedule token: %w", err)
	}

	link := s.baseURL + reschedulePath + tok + "/"
	body := fmt.Sprintf(
		"We could not accommodate your requested times. Please use the link below to submit new preferences (valid for 48 hours):\n\n%s\n",
		link,
	)
	return s.sender.Send(ctx, to, "Please choose new appointment times", body)
}
