package emailsvc

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicevents/crm/core"
)

type recLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recLogger) Debug(msg string, args ...interface{}) {}
func (l *recLogger) Info(msg string, args ...interface{})  {}
func (l *recLogger) Warn(msg string, args ...interface{})  {}
func (l *recLogger) Fatal(msg string, args ...interface{}) {}
func (l *recLogger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

var testConf = &core.Config{
	AppName:          "Epic Events",
	DefaultFromEmail: mail.Address{Name: "Epic Events", Address: "noreply@epicevents.local"},
}

func init() {
	core.RegisterEmailTemplate("test_hello", "Hello {{.Name}}!")
}

func TestConsoleService_SendMessages(t *testing.T) {
	var out bytes.Buffer
	logger := &recLogger{}
	svc := NewConsoleService(testConf, &out, logger)

	to := []mail.Address{{Name: "Emma Bernard", Address: "emma@epicevent.com"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "just text"},
		&core.EmailMessage{To: to, Subject: "templated", TemplateName: "test_hello", TemplateData: map[string]string{"Name": "Emma"}},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "dropped"},
		&core.EmailMessage{To: to, Subject: "broken", TemplateName: "test_hello", TemplateData: map[string]string{}},
		&core.EmailMessage{To: to, Subject: "unknown", TemplateName: "lol"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	var contents []string
	for _, m := range sent {
		contents = append(contents, m.TextContent)
	}
	assert.ElementsMatch(t, []string{"just text", "Hello Emma!"}, contents)
	assert.Len(t, logger.errors, 2)

	s := out.String()
	assert.Contains(t, s, "Subject: [Epic Events] templated")
	assert.Contains(t, s, `To: "Emma Bernard" <emma@epicevent.com>`)
	assert.False(t, strings.Contains(s, "dropped"))
}

func TestSendgridService_send(t *testing.T) {
	logger := &recLogger{}
	svc := NewSendgridService(&core.Config{AppName: "Epic Events", SendgridAPIKey: "key", DefaultFromEmail: testConf.DefaultFromEmail}, logger)

	var reqs []rest.Request
	var mu sync.Mutex
	sendRequest = func(req rest.Request) (*rest.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		reqs = append(reqs, req)
		if len(reqs) > 1 {
			return nil, errors.New("network unreachable")
		}
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}
	defer func() { sendRequest = sendgridAPI }()

	to := []mail.Address{{Name: "Bruno Lefevre", Address: "bruno@epicevent.com"}}
	svc.SendMessages(&core.EmailMessage{To: to, Subject: "contract 1 signed", BodyStr: "signed"})
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, string(reqs[0].Method))
	assert.Equal(t, "Bearer key", reqs[0].Headers["Authorization"])

	var payload struct {
		Personalizations []struct {
			To      []struct{ Email string }
			Subject string
		}
		Content []struct{ Type, Value string }
	}
	require.NoError(t, json.Unmarshal(reqs[0].Body, &payload))
	require.Len(t, payload.Personalizations, 1)
	assert.Equal(t, "[Epic Events] contract 1 signed", payload.Personalizations[0].Subject)
	assert.Equal(t, "bruno@epicevent.com", payload.Personalizations[0].To[0].Email)
	assert.Equal(t, "signed", payload.Content[0].Value)

	svc.SendMessages(&core.EmailMessage{To: to, Subject: "again", BodyStr: "signed"})
	assert.Len(t, logger.errors, 1)
}

func TestNew(t *testing.T) {
	logger := &recLogger{}
	_, isConsole := New(testConf, logger).(*consoleService)
	assert.True(t, isConsole)

	conf := *testConf
	conf.SendgridAPIKey = "key"
	_, isSendgrid := New(&conf, logger).(*sendgridService)
	assert.True(t, isSendgrid)
}
