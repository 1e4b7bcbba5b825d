package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchsync/internal/index"
	"searchsync/internal/testutil"
)

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	fail bool
}

func (f *fakeMailer) Send(to []string, subject, htmlBody string) error {
	if f.fail {
		return errors.New("relay refused")
	}
	f.sent = append(f.sent, sentMail{to, subject, htmlBody})
	return nil
}

func TestContentPublished_SendsMail(t *testing.T) {
	mailer := &fakeMailer{}
	notifier := NewNotifier(mailer, []string{"editors@example.com"}, testutil.NewTestLogger())

	notifier.ContentPublished(index.Document{
		ID:     "7_news_en",
		Entity: "news-article",
		Title:  "Q3 Market Update",
		Slug:   "q3-market-update",
		Locale: "en",
	})

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"editors@example.com"}, mailer.sent[0].to)
	assert.Equal(t, "New news article published: Q3 Market Update", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "q3-market-update")
}

func TestContentPublished_NoRecipientsNoSend(t *testing.T) {
	mailer := &fakeMailer{}
	notifier := NewNotifier(mailer, nil, testutil.NewTestLogger())

	notifier.ContentPublished(index.Document{ID: "1_report_en", Title: "Anything"})

	assert.Empty(t, mailer.sent)
}

func TestContentPublished_MailFailureSwallowed(t *testing.T) {
	mailer := &fakeMailer{fail: true}
	notifier := NewNotifier(mailer, []string{"editors@example.com"}, testutil.NewTestLogger())

	assert.NotPanics(t, func() {
		notifier.ContentPublished(index.Document{ID: "1_report_en", Title: "Anything"})
	})
}
