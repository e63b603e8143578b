package instrumentation

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestToolInvocation_Complete(t *testing.T) {
	ti := NewToolInvocation("meta_list_campaigns")
	ti.WithUser("advertiser@example.com").
		WithAccount("act_1234567890").
		WithService(ServiceCampaigns, OperationList)

	time.Sleep(time.Millisecond)
	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("expected Success to be true")
	}
	if ti.Duration <= 0 {
		t.Error("expected positive duration")
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("expected status %q, got %q", StatusSuccess, ti.Status())
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation("meta_create_campaign")
	ti.CompleteWithError(errors.New("insufficient permissions"))

	if ti.Success {
		t.Error("expected Success to be false")
	}
	if ti.Error != "insufficient permissions" {
		t.Errorf("unexpected error string: %q", ti.Error)
	}
	if ti.Status() != StatusError {
		t.Errorf("expected status %q, got %q", StatusError, ti.Status())
	}
}

func TestToolInvocation_LogAttrsAnonymized(t *testing.T) {
	ti := NewToolInvocation("meta_get_insights")
	ti.WithUser("advertiser@example.com").
		WithAccount("act_1234567890").
		WithService(ServiceInsights, OperationGet).
		CompleteSuccess()

	attrs := ti.LogAttrs()

	for _, attr := range attrs {
		if attr.Key == "user" {
			t.Error("LogAttrs must not include the full user identity")
		}
		if attr.Key == "user_domain" && attr.Value.String() != "example.com" {
			t.Errorf("expected user_domain 'example.com', got %q", attr.Value.String())
		}
	}
}

func TestAuditLogger_PIIRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	al := NewAuditLogger(logger)

	ti := NewToolInvocation("meta_list_audiences")
	ti.WithUser("advertiser@example.com").CompleteSuccess()
	al.LogToolInvocation(ti)

	if strings.Contains(buf.String(), "advertiser@example.com") {
		t.Error("audit log leaked full email with PII disabled")
	}
	if !strings.Contains(buf.String(), "example.com") {
		t.Error("expected domain in audit log output")
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: false})

	ti := NewToolInvocation("meta_list_campaigns")
	ti.CompleteSuccess()
	al.LogToolInvocation(ti)

	if buf.Len() != 0 {
		t.Errorf("expected no output from disabled audit logger, got %q", buf.String())
	}
}
