// Package notify delivers alert messages to external services through
// shoutrrr service URLs. Delivery is best effort, a failing sink never
// propagates an error into the detection pipeline.
package notify

import (
	"fmt"
	"io"
	stdlog "log"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/umputun/regionpulse/pkg/config"
	"github.com/umputun/regionpulse/pkg/domain"
)

// Service sends formatted notifications. With no URLs configured every
// send is a successful no-op.
type Service struct {
	sender *router.ServiceRouter
}

// NewService creates a notification service for the configured URLs.
func NewService(cfg config.NotifyConfig) (*Service, error) {
	if len(cfg.URLs) == 0 {
		log.Printf("[INFO] notifications disabled, no service urls configured")
		return &Service{}, nil
	}

	sender, err := shoutrrr.CreateSender(cfg.URLs...)
	if err != nil {
		return nil, fmt.Errorf("create notification sender: %w", err)
	}
	sender.Timeout = cfg.Timeout
	sender.SetLogger(stdlog.New(io.Discard, "", 0)) // shoutrrr's own logging is too chatty

	log.Printf("[INFO] notifications enabled for %d service(s)", len(cfg.URLs))
	return &Service{sender: sender}, nil
}

// Enabled reports whether any sink is configured.
func (s *Service) Enabled() bool { return s.sender != nil }

// SendAlert formats and delivers a spike alert. Returns true when at
// least one sink accepted the message.
func (s *Service) SendAlert(alert domain.Alert) bool {
	emoji := "⚠️"
	if alert.Severity == domain.SeverityHigh {
		emoji = "\U0001f6a8"
	}
	body := fmt.Sprintf("%s %s sentiment spike in %s\nIssue: %s\nNegative share: %.1f%% of %d mentions\nEstimated change: %.1f",
		emoji, alert.Severity, alert.Region, alert.Issue, alert.Percentage, alert.TotalMentions, alert.ChangeEstimate)
	return s.send(body, &types.Params{"title": fmt.Sprintf("regionpulse: %s spike in %s", alert.Severity, alert.Region)})
}

// SendSummary delivers a digest line per region.
func (s *Service) SendSummary(regions []domain.RegionSentiment) bool {
	if len(regions) == 0 {
		return s.send("sentiment summary: no regional data in the current window", nil)
	}
	lines := make([]string, 0, len(regions)+1)
	lines = append(lines, "sentiment summary:")
	for _, r := range regions {
		lines = append(lines, fmt.Sprintf("%s: %d mentions, %d negative, %d positive",
			r.Region, r.Total, r.Negative, r.Positive))
	}
	return s.send(strings.Join(lines, "\n"), &types.Params{"title": "regionpulse: sentiment summary"})
}

// SendStartup announces that the service came up.
func (s *Service) SendStartup(version string) bool {
	return s.send(fmt.Sprintf("regionpulse %s started", version), nil)
}

// SendTest delivers a test message so operators can verify sink wiring.
func (s *Service) SendTest() bool {
	return s.send("regionpulse test notification", &types.Params{"title": "regionpulse: test"})
}

func (s *Service) send(body string, params *types.Params) bool {
	if s.sender == nil {
		return true
	}
	errs := s.sender.Send(body, params)
	ok := false
	for _, err := range errs {
		if err != nil {
			log.Printf("[WARN] notification delivery failed: %v", err)
			continue
		}
		ok = true
	}
	return ok
}
