package edgedriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Notifier delivers best-effort operator notifications. Errors from
// Notify are logged by the caller and never escalate; there is no
// second-tier alerting behind the mail channel.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// GraphNotifier sends mail through the Microsoft Graph sendMail
// endpoint using the client-credential OAuth2 flow.
type GraphNotifier struct {
	// Endpoint overrides the Graph base URL, for tests. Defaults to
	// https://{Mail.Host}/v1.0.
	Endpoint string
	// TokenURL overrides the Azure AD token endpoint, for tests.
	TokenURL string

	mail       MailConfig
	recipients []string
	now        func() time.Time
}

// NewGraphNotifier builds a notifier from validated mail configuration.
func NewGraphNotifier(mail MailConfig, recipients []string) *GraphNotifier {
	return &GraphNotifier{
		mail:       mail,
		recipients: recipients,
		now:        time.Now,
	}
}

type graphRecipient struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type graphMessage struct {
	Subject string `json:"subject"`
	Body    struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	ToRecipients []graphRecipient `json:"toRecipients"`
}

// Notify sends one HTML mail to every configured recipient. The subject
// is stamped with the send time, matching the report format operators
// already filter on.
func (n *GraphNotifier) Notify(ctx context.Context, subject, body string) error {
	cc := &clientcredentials.Config{
		ClientID:     n.mail.ClientID,
		ClientSecret: n.mail.ClientSecret,
		TokenURL:     n.tokenURL(),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
		// Azure AD v2 expects the credentials in the request body.
		AuthStyle: oauth2.AuthStyleInParams,
	}
	client := cc.Client(ctx)
	now := n.now
	if now == nil {
		now = time.Now
	}

	msg := graphMessage{
		Subject: fmt.Sprintf("%s (%s)", subject, now().Format("02-01-2006 15:04")),
	}
	msg.Body.ContentType = "HTML"
	msg.Body.Content = reportBody(body)
	for _, addr := range n.recipients {
		var r graphRecipient
		r.EmailAddress.Address = addr
		msg.ToRecipients = append(msg.ToRecipients, r)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"message":         msg,
		"saveToSentItems": false,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/users/%s/sendMail", n.endpoint(), n.mail.Sender)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification mail: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sending notification mail: status %s: %s", resp.Status, detail)
	}
	return nil
}

func (n *GraphNotifier) endpoint() string {
	if n.Endpoint != "" {
		return n.Endpoint
	}
	return fmt.Sprintf("https://%s/v1.0", n.mail.Host)
}

func (n *GraphNotifier) tokenURL() string {
	if n.TokenURL != "" {
		return n.TokenURL
	}
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", n.mail.TenantID)
}

func reportBody(message string) string {
	return fmt.Sprintf("<h2>Driver provisioning report</h2><p>%s</p><p>Sent by the driver provisioning job.</p>", message)
}
