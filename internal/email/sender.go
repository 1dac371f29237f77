package email

import (
	"context"
	"errors"
)

// ErrDisabled indica que no hay transporte de correo configurado.
var ErrDisabled = errors.New("email sender disabled")

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	To          string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Sender define la interfaz para envío de correos transaccionales.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Enabled() bool
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _ Message) error {
	if s.reason == "" {
		return ErrDisabled
	}
	return errors.Join(ErrDisabled, errors.New(s.reason))
}

func (s *disabledSender) Enabled() bool { return false }
