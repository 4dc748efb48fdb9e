// therapists_test.go
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

package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/localnerve/haven/internal/models"
	"github.com/localnerve/haven/internal/services"
	"github.com/localnerve/haven/internal/testutil"
	"github.com/localnerve/haven/internal/vendors"
)

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) ExtractText(image []byte, contentType string) (string, error) {
	return f.text, f.err
}

type fakeMailer struct {
	sent []vendors.Email
	err  error
}

func (f *fakeMailer) Send(email vendors.Email) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, email)
	return "msg-1", nil
}

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) SendSMS(to, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, body)
	return "SM1", nil
}

func therapistInput(name, license, state string) services.TherapistInput {
	return services.TherapistInput{
		FullName:      name,
		LicenseNumber: license,
		LicenseState:  state,
		Specialties:   []string{"anxiety"},
	}
}

// TestTherapistVerification tests OCR matching, admin decisions and license resets
func TestTherapistVerification(t *testing.T) {
	ctx := context.Background()
	ocr := &fakeOCR{text: "State Board of Psychology\nLicense No. psy-12 345\nExpires 2027"}
	mailer := &fakeMailer{}
	svc := &services.TherapistService{DB: testutil.SetupTestDB(t), OCR: ocr, Mailer: mailer}

	if _, err := svc.UpsertTherapistProfile("t-1", "t1@example.com", services.TherapistInput{LicenseState: "California"}); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}

	own, err := svc.UpsertTherapistProfile("t-1", "t1@example.com", therapistInput("Dr. Rivera", "PSY12345", "ca"))
	if err != nil {
		t.Fatalf("UpsertTherapistProfile failed: %v", err)
	}
	if own.VerificationStatus != models.VerificationPending || own.LicenseState != "CA" || !own.AcceptingClients {
		t.Errorf("Unexpected new profile %+v", own)
	}

	if _, err := svc.GetPublicTherapist(own.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected unverified therapist to be hidden, got %v", err)
	}

	own, err = svc.VerifyCredential("t-1", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("VerifyCredential failed: %v", err)
	}
	if own.CredentialMatch == nil || !*own.CredentialMatch || own.VerificationStatus != models.VerificationPendingReview {
		t.Errorf("Expected matched credential pending review, got %+v", own)
	}

	if _, err := svc.SetVerification(ctx, own.ID, "maybe"); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
	own, err = svc.SetVerification(ctx, own.ID, models.VerificationVerified)
	if err != nil {
		t.Fatalf("SetVerification failed: %v", err)
	}
	if own.VerifiedAt == nil {
		t.Error("Expected verified time")
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To[0] != "t1@example.com" || !strings.Contains(mailer.sent[0].Subject, "verified") {
		t.Errorf("Expected verification email, got %+v", mailer.sent)
	}
	if _, err := svc.GetPublicTherapist(own.ID); err != nil {
		t.Errorf("Expected verified therapist to be public, got %v", err)
	}

	// Keeping the license keeps verification, changing it resets
	own, _ = svc.UpsertTherapistProfile("t-1", "", therapistInput("Dr. Rivera", "psy12345", "CA"))
	if own.VerificationStatus != models.VerificationVerified || own.Email != "t1@example.com" {
		t.Errorf("Expected verification to survive a bio edit, got %+v", own)
	}
	own, _ = svc.UpsertTherapistProfile("t-1", "", therapistInput("Dr. Rivera", "PSY99999", "CA"))
	if own.VerificationStatus != models.VerificationPending || own.CredentialMatch != nil || own.VerifiedAt != nil {
		t.Errorf("Expected license change to reset verification, got %+v", own)
	}

	ocr.text = "nothing useful"
	own, err = svc.VerifyCredential("t-1", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("VerifyCredential failed: %v", err)
	}
	if own.CredentialMatch == nil || *own.CredentialMatch || own.VerificationStatus != models.VerificationPending {
		t.Errorf("Expected unmatched credential to stay pending, got %+v", own)
	}

	if _, err := svc.VerifyCredential("t-1", []byte("x"), "text/plain"); !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for content type, got %v", err)
	}
	ocr.err = vendors.ErrNotConfigured
	if _, err := svc.VerifyCredential("t-1", []byte("png"), "image/png"); !errors.Is(err, services.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
	ocr.err = errors.New("500")
	if _, err := svc.VerifyCredential("t-1", []byte("png"), "image/png"); !errors.Is(err, services.ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
	if _, err := svc.VerifyCredential("nobody", []byte("png"), "image/png"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound without a profile, got %v", err)
	}
}

// TestLicenseAppears tests alphanumeric comparison
func TestLicenseAppears(t *testing.T) {
	tests := []struct {
		license, text string
		want          bool
	}{
		{"PSY-12345", "License psy 12345", true},
		{"LMFT 001", "lmft001 active", true},
		{"12345", "1234", false},
		{"", "anything", false},
	}
	for _, tt := range tests {
		if got := services.LicenseAppears(tt.license, tt.text); got != tt.want {
			t.Errorf("LicenseAppears(%q, %q) = %v, want %v", tt.license, tt.text, got, tt.want)
		}
	}
}

// TestMatchTherapists tests scoring, state filtering and ordering
func TestMatchTherapists(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := &services.TherapistService{DB: db}

	closed := false
	inputs := []struct {
		user string
		in   services.TherapistInput
	}{
		{"t-a", services.TherapistInput{FullName: "Avery", LicenseNumber: "1", LicenseState: "CA", Specialties: []string{"Anxiety", "Sleep"}, Languages: []string{"Spanish"}, Modalities: []string{"CBT"}, SessionFormats: []string{"video"}}},
		{"t-b", services.TherapistInput{FullName: "blake", LicenseNumber: "2", LicenseState: "CA", Specialties: []string{"anxiety"}}},
		{"t-c", services.TherapistInput{FullName: "Casey", LicenseNumber: "3", LicenseState: "CA", Specialties: []string{"grief"}}},
		{"t-d", services.TherapistInput{FullName: "Drew", LicenseNumber: "4", LicenseState: "NY", Specialties: []string{"anxiety", "sleep"}}},
		{"t-e", services.TherapistInput{FullName: "Emery", LicenseNumber: "5", LicenseState: "CA", Specialties: []string{"anxiety"}, AcceptingClients: &closed}},
		{"t-f", services.TherapistInput{FullName: "Finley", LicenseNumber: "6", LicenseState: "CA", Specialties: []string{"anxiety"}}},
	}
	for _, i := range inputs {
		own, err := svc.UpsertTherapistProfile(i.user, "", i.in)
		if err != nil {
			t.Fatalf("UpsertTherapistProfile failed: %v", err)
		}
		if i.user == "t-f" {
			continue // never verified
		}
		if _, err := svc.SetVerification(ctx, own.ID, models.VerificationVerified); err != nil {
			t.Fatalf("SetVerification failed: %v", err)
		}
	}

	profile, _ := models.NewJSON(map[string]interface{}{
		"concerns":       []string{"anxiety", "sleep"},
		"languages":      "Spanish, English",
		"modalities":     []string{"cbt"},
		"session_format": "video",
		"state":          "ca",
	})
	if err := db.Create(&models.UserProfile{UserID: "patient-1", Profile: profile}).Error; err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}

	matches, err := svc.MatchTherapists("patient-1", 0)
	if err != nil {
		t.Fatalf("MatchTherapists failed: %v", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Therapist.FullName)
	}
	if strings.Join(names, ",") != "Avery,blake,Casey" {
		t.Fatalf("Unexpected match order %v", names)
	}
	// 3*2 concerns + 2 language + 1 modality + 1 format
	if matches[0].Score != 10 {
		t.Errorf("Expected score 10, got %d (%v)", matches[0].Score, matches[0].Reasons)
	}
	if matches[1].Score != 3 || matches[2].Score != 0 {
		t.Errorf("Unexpected scores %d and %d", matches[1].Score, matches[2].Score)
	}

	// Without a profile every verified, accepting therapist is a candidate
	matches, _ = svc.MatchTherapists("stranger", 2)
	if len(matches) != 2 {
		t.Errorf("Expected limit of 2, got %d", len(matches))
	}
}

// TestCrisisNotifier tests channel fan-out and partial failure
func TestCrisisNotifier(t *testing.T) {
	ctx := context.Background()
	alert := services.CrisisAlert{ConversationID: "conv-1", UserID: "user-1", Level: services.CrisisAcute}

	var disabled *services.Notifier
	if err := disabled.SendCrisisAlert(ctx, alert); err != nil {
		t.Errorf("Expected disabled notifier to succeed quietly, got %v", err)
	}

	mailer, sms := &fakeMailer{}, &fakeSMS{}
	n := &services.Notifier{Mailer: mailer, SMS: sms, AlertEmail: "oncall@example.com", AlertPhone: "+15550100", AdminURL: "https://admin.example.com"}
	if err := n.SendCrisisAlert(ctx, alert); err != nil {
		t.Fatalf("SendCrisisAlert failed: %v", err)
	}
	if len(mailer.sent) != 1 || len(sms.sent) != 1 {
		t.Fatalf("Expected one email and one sms, got %d and %d", len(mailer.sent), len(sms.sent))
	}
	if !strings.Contains(sms.sent[0], "conv-1") || !strings.Contains(sms.sent[0], "https://admin.example.com") {
		t.Errorf("Unexpected sms body %q", sms.sent[0])
	}

	sms.err = errors.New("twilio down")
	if err := n.SendCrisisAlert(ctx, alert); err != nil {
		t.Errorf("Expected partial failure to succeed, got %v", err)
	}
	mailer.err = errors.New("resend down")
	if err := n.SendCrisisAlert(ctx, alert); err == nil {
		t.Error("Expected an error when every channel fails")
	}
}
