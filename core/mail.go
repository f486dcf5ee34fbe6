package core

import (
	"bytes"
	"net/mail"
	"sync"
	"text/template"

	"github.com/pkg/errors"
)

var (
	templates = make(map[string]*template.Template)
	tmplMu    sync.RWMutex
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string
		TemplateData interface{}
		TextContent  string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently and returns once all of them are handled.
		SendMessages(messages ...*EmailMessage)
	}
)

// RegisterEmailTemplate parses and stores a text/template under name.
func RegisterEmailTemplate(name, text string) {
	tmpl := template.Must(template.New(name).Option("missingkey=error").Parse(text))
	tmplMu.Lock()
	templates[name] = tmpl
	tmplMu.Unlock()
}

func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplMu.RLock()
	tmpl, ok := templates[m.TemplateName]
	tmplMu.RUnlock()
	if !ok {
		return errors.Errorf("email template %q not registered", m.TemplateName)
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.TemplateData); err != nil {
		return errors.Wrapf(err, "rendering %s", m.TemplateName)
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }
