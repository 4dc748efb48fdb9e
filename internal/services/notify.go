// notify.go
//
// Haven, a mental health support backend: AI chat, intake, community and therapist matching
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of haven.
// haven is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// haven is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with haven.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/localnerve/haven/internal/queue"
	"github.com/localnerve/haven/internal/vendors"
)

// SMSSender sends text messages
type SMSSender interface {
	SendSMS(to, body string) (string, error)
}

// Notifier alerts the on-call contacts when a conversation is flagged. Alerts carry the
// conversation id and level only, never what the person wrote.
type Notifier struct {
	Mailer     Mailer
	SMS        SMSSender
	AlertEmail string
	AlertPhone string
	AdminURL   string
}

// Enabled reports whether any alert channel is configured
func (n *Notifier) Enabled() bool {
	return n != nil && ((n.Mailer != nil && n.AlertEmail != "") || (n.SMS != nil && n.AlertPhone != ""))
}

// SendCrisisAlert delivers the alert on every configured channel. It fails only if every
// configured channel fails, so a retry does not re-send what already went out.
func (n *Notifier) SendCrisisAlert(ctx context.Context, alert CrisisAlert) error {
	if !n.Enabled() {
		log.Printf("Crisis alert for conversation %s (%s) not sent, no alert channel configured", alert.ConversationID, alert.Level)
		return nil
	}

	summary := fmt.Sprintf("Haven crisis alert: conversation %s was flagged %s.", alert.ConversationID, alert.Level)
	if n.AdminURL != "" {
		summary += " Review: " + n.AdminURL
	}

	var errs []error
	sent := 0
	if n.Mailer != nil && n.AlertEmail != "" {
		if _, err := n.Mailer.Send(vendors.Email{
			To:      []string{n.AlertEmail},
			Subject: fmt.Sprintf("[Haven] %s crisis flag", alert.Level),
			HTML:    "<p>" + summary + "</p><p>User reference: " + alert.UserID + "</p>",
		}); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			sent++
		}
	}
	if n.SMS != nil && n.AlertPhone != "" {
		if _, err := n.SMS.SendSMS(n.AlertPhone, summary); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		} else {
			sent++
		}
	}

	if sent == 0 && len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		log.Printf("Crisis alert for conversation %s partially failed: %v", alert.ConversationID, err)
	}
	return nil
}

// HandleCrisisTask is the notify:crisis task handler
func (n *Notifier) HandleCrisisTask(ctx context.Context, task queue.Task) error {
	var alert CrisisAlert
	if err := task.Decode(&alert); err != nil {
		return err
	}
	return n.SendCrisisAlert(ctx, alert)
}
