package email

import (
	"strings"
	"testing"
)

func TestRenderAssignmentEmail(t *testing.T) {
	htmlContent, textContent, err := renderAssignmentEmail(AssignmentEmail{
		CustomerName:    "Dana <script>",
		TechnicianName:  "Sam Rivera",
		ReferenceNumber: "FSM-20260316-ABC123",
		Title:           "Leaking sink",
		ScheduledAt:     "Mon, 16 Mar 2026 10:00 UTC",
		Address:         "1 Main St, Springfield, IL 62701",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(htmlContent, "Sam Rivera") || !strings.Contains(htmlContent, "FSM-20260316-ABC123") {
		t.Fatalf("html missing fields: %s", htmlContent)
	}
	if strings.Contains(htmlContent, "<script>") {
		t.Fatal("html output must be escaped")
	}
	if !strings.Contains(textContent, "Reference: FSM-20260316-ABC123") {
		t.Fatalf("text missing reference: %s", textContent)
	}
}
