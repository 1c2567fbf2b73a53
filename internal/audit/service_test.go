package audit_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"flavorshop-backend/internal/audit"
	"flavorshop-backend/internal/models"
	"flavorshop-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
)

func TestWriteLogAndList(t *testing.T) {
	db := testutil.NewDB(t)
	uid := uint(7)

	err := audit.WriteLog(db, audit.LogOptions{
		Actor:       audit.Actor{UserID: &uid, Name: "Ana"},
		EntityType:  "sale",
		EntityID:    3,
		Action:      models.AuditActionCreate,
		Description: "sale registered",
		After:       map[string]int{"quantity": 2},
	})
	if err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	if err := audit.WriteLog(db, audit.LogOptions{EntityType: "category", EntityID: 1, Action: models.AuditActionDelete}); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}

	app := fiber.New()
	app.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	resp, err := app.Test(httptest.NewRequest("GET", "/audit-logs?entity_type=sale", nil))
	if err != nil {
		t.Fatal(err)
	}
	var logs []audit.AuditLogResponse
	if err := json.NewDecoder(resp.Body).Decode(&logs); err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	if logs[0].UserName != "Ana" || logs[0].Before != "null" || logs[0].After != `{"quantity":2}` {
		t.Fatalf("unexpected log %+v", logs[0])
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/audit-logs", nil))
	logs = nil
	json.NewDecoder(resp.Body).Decode(&logs)
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].UserName != "system" {
		t.Fatalf("newest log should be the system one, got %+v", logs[0])
	}
}
