package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/sudo-sidd/neuropilot/internal/model"
	"github.com/sudo-sidd/neuropilot/tests/testutil"
)

func TestUpsertDailyFormReplacesSameDate(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mood := 3
	if err := s.UpsertDailyForm(ctx, model.DailyForm{
		FormDate: date,
		Mood:     &mood,
		Thoughts: "slow start",
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	better := 5
	if err := s.UpsertDailyForm(ctx, model.DailyForm{
		FormDate:   date,
		Mood:       &better,
		Thoughts:   "picked up after lunch",
		Highlights: "shipped the report",
		AdditionalFields: map[string]string{
			"energy": "high",
		},
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.GetDailyForm(ctx, date)
	if err != nil {
		t.Fatalf("getting daily form: %v", err)
	}
	if got == nil {
		t.Fatal("daily form not found after upsert")
	}
	if got.Mood == nil || *got.Mood != 5 {
		t.Errorf("mood = %v, want 5", got.Mood)
	}
	if got.Thoughts != "picked up after lunch" {
		t.Errorf("thoughts = %q, want replacement text", got.Thoughts)
	}
	if got.AdditionalFields["energy"] != "high" {
		t.Errorf("additional fields = %v, want energy=high", got.AdditionalFields)
	}

	// The second write must not have created a second row.
	forms, err := s.GetDailyForms(ctx, date, date)
	if err != nil {
		t.Fatalf("listing daily forms: %v", err)
	}
	if len(forms) != 1 {
		t.Errorf("rows for %s = %d, want 1", date.Format("2006-01-02"), len(forms))
	}
}

func TestGetDailyFormMissing(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.GetDailyForm(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("getting missing daily form: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v for a date with no form, want nil", got)
	}
}

func TestGetDailyFormsRange(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 3; day++ {
		if err := s.UpsertDailyForm(ctx, model.DailyForm{
			FormDate: monday.AddDate(0, 0, day),
			Thoughts: "entry",
		}); err != nil {
			t.Fatalf("upserting form: %v", err)
		}
	}

	forms, err := s.GetDailyForms(ctx, monday, monday.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("listing daily forms: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("range returned %d forms, want 2", len(forms))
	}
	if !forms[0].FormDate.Equal(monday) {
		t.Errorf("first form date = %v, want %v", forms[0].FormDate, monday)
	}
}
