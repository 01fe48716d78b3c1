package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/storage/database/inmem"
)

func TestMessageApi_Destroy(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Fatima Zahra", "admin@test.test", user.RoleAdmin)
	token := getToken(t, admin)
	ids := app.db.Insert("admin_messages",
		inmemdb.Row{"sender_id": admin.ID, "subject": "Welcome", "body": "Welcome to the school"},
		inmemdb.Row{"sender_id": admin.ID, "subject": "Reminder", "body": "Classes start on Monday"},
	)
	deleted := marchallObj(t, SuccessResponse{Success: true, Message: "Message deleted successfully"})

	tests := []httpTest{
		{
			name:     "missing id",
			method:   http.MethodDelete,
			path:     "/api/admin/delete-message",
			body:     []byte(`{}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"messageId":"this field is required"}`),
		},
		{
			name:     "invalid json",
			method:   http.MethodDelete,
			path:     "/api/admin/delete-message",
			body:     []byte(`{"messageId":`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid JSON payload"}),
		},
		{
			name:     "unknown",
			method:   http.MethodDelete,
			path:     "/api/admin/delete-message",
			body:     marchallObj(t, DeleteMessageRequest{MessageID: "00000000-0000-0000-0000-000000000000"}),
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "message not found"}),
		},
		{
			name:     "by body",
			method:   http.MethodDelete,
			path:     "/api/admin/delete-message",
			body:     marchallObj(t, DeleteMessageRequest{MessageID: ids[0]}),
			token:    token,
			wantCode: http.StatusOK,
			wantData: deleted,
		},
		{
			name:     "by query",
			method:   http.MethodDelete,
			path:     "/api/admin/delete-message?messageId=" + ids[1],
			token:    token,
			wantCode: http.StatusOK,
			wantData: deleted,
		},
		{
			name:     "already deleted",
			method:   http.MethodDelete,
			path:     "/api/admin/delete-message",
			body:     marchallObj(t, DeleteMessageRequest{MessageID: ids[0]}),
			token:    token,
			wantCode: http.StatusNotFound,
		},
	}
	runHTTPTests(t, app, tests)
	assert.Zero(t, app.db.Count("admin_messages"))
}
