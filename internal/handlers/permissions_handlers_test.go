package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/kurbezz/shared-lists/internal/models"
)

func TestViewOnlySharing(t *testing.T) {
	env := setupTestEnv(t)
	_, aliceToken := createTestUser(t, env.db, "alice")
	bob, bobToken := createTestUser(t, env.db, "bob")

	pageID := createPage(t, env, aliceToken, "Groceries")
	listID := createList(t, env, aliceToken, pageID, "Produce")
	createItem(t, env, aliceToken, listID, "Apples")
	grantAccess(t, env, aliceToken, pageID, bob.ID, false)

	t.Run("a viewer sees the page without edit rights", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/pages/"+pageID, nil, authHeaders(bobToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		data := dataObject(t, body)
		if data["can_edit"] != false || data["is_creator"] != false {
			t.Fatalf("expected view-only access, got %+v", data)
		}
	})

	t.Run("a viewer can read lists and items", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, fmt.Sprintf("/api/pages/%s/lists", pageID), nil, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusOK)

		resp = performRequest(t, env.app, http.MethodGet, fmt.Sprintf("/api/lists/%s/items", listID), nil, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("a viewer cannot add a list", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/pages/%s/lists", pageID), map[string]any{"title": "Dairy"}, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusForbidden)

		var count int64
		env.db.Model(&models.List{}).Where("page_id = ?", pageID).Count(&count)
		if count != 1 {
			t.Fatalf("expected 1 list, got %d", count)
		}
	})

	t.Run("a viewer cannot check items", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/lists/%s/items", listID), map[string]any{"content": "Pears"}, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("a viewer cannot rename the page", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPatch, "/api/pages/"+pageID, map[string]any{"title": "Mine now"}, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusForbidden)
	})
}

func TestPermissionManagement(t *testing.T) {
	env := setupTestEnv(t)
	alice, aliceToken := createTestUser(t, env.db, "alice")
	bob, bobToken := createTestUser(t, env.db, "bob")
	carol, _ := createTestUser(t, env.db, "carol")

	pageID := createPage(t, env, aliceToken, "Team todo")
	permissionsPath := fmt.Sprintf("/api/pages/%s/permissions", pageID)
	bobPermission := grantAccess(t, env, aliceToken, pageID, bob.ID, true)

	t.Run("granting to the creator is rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, permissionsPath, map[string]any{"user_id": alice.ID.String()}, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
		}
		assertValidationField(t, body, "user_id")
	})

	t.Run("a duplicate grant conflicts", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, permissionsPath, map[string]any{"user_id": bob.ID.String()}, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusConflict)
	})

	t.Run("a malformed user id is a validation error", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, permissionsPath, map[string]any{"user_id": "nope"}, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
		}
		assertValidationField(t, body, "user_id")
	})

	t.Run("granting to an unknown user is not found", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, permissionsPath, map[string]any{"user_id": "00000000-0000-0000-0000-000000000042"}, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusNotFound)
	})

	t.Run("an editor can change content but not sharing", func(t *testing.T) {
		createList(t, env, bobToken, pageID, "Bob's list")

		resp := performJSONRequest(t, env.app, http.MethodPost, permissionsPath, map[string]any{"user_id": carol.ID.String()}, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusForbidden)

		resp = performRequest(t, env.app, http.MethodGet, permissionsPath, nil, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("GET lists grants and never the creator", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, permissionsPath, nil, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		grants := dataArray(t, body)
		if len(grants) != 1 {
			t.Fatalf("expected 1 grant, got %d", len(grants))
		}
		if grants[0]["user_id"] != bob.ID.String() || grants[0]["can_edit"] != true {
			t.Fatalf("unexpected grant %+v", grants[0])
		}
		user, _ := grants[0]["user"].(map[string]any)
		if user["username"] != "bob" {
			t.Fatalf("expected grantee to be embedded, got %+v", grants[0]["user"])
		}
	})

	t.Run("PATCH downgrades an editor to viewer", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPatch, permissionsPath+"/"+bobPermission, map[string]any{"can_edit": false}, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if dataObject(t, body)["can_edit"] != false {
			t.Fatalf("expected can_edit=false, got %+v", body["data"])
		}

		resp = performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/pages/%s/lists", pageID), map[string]any{"title": "Another"}, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("PATCH without can_edit is rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPatch, permissionsPath+"/"+bobPermission, map[string]any{}, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
		}
		assertValidationField(t, body, "can_edit")
	})

	t.Run("DELETE revokes access and a second revoke is not found", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, permissionsPath+"/"+bobPermission, nil, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusNoContent)

		resp = performRequest(t, env.app, http.MethodDelete, permissionsPath+"/"+bobPermission, nil, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusNotFound)

		resp = performRequest(t, env.app, http.MethodGet, "/api/pages/"+pageID, nil, authHeaders(bobToken))
		assertStatus(t, resp, http.StatusNotFound)
	})
}

func TestPublicPages(t *testing.T) {
	env := setupTestEnv(t)
	_, aliceToken := createTestUser(t, env.db, "alice")
	_, bobToken := createTestUser(t, env.db, "bob")

	pageID := createPage(t, env, aliceToken, "Team todo")
	otherPageID := createPage(t, env, aliceToken, "Second page")
	bobsPageID := createPage(t, env, bobToken, "Bob's page")

	visible := createList(t, env, aliceToken, pageID, "Visible")
	checkedItem := createItem(t, env, aliceToken, visible, "Done")
	createItem(t, env, aliceToken, visible, "Open")
	resp := performJSONRequest(t, env.app, http.MethodPatch, fmt.Sprintf("/api/lists/%s/items/%s", visible, checkedItem), map[string]any{"checked": true}, authHeaders(aliceToken))
	assertStatus(t, resp, http.StatusOK)

	resp = performJSONRequest(t, env.app, http.MethodPost, fmt.Sprintf("/api/pages/%s/lists", pageID), map[string]any{
		"title":           "Plain",
		"show_checkboxes": false,
		"show_progress":   false,
	}, authHeaders(aliceToken))
	assertStatus(t, resp, http.StatusCreated)
	plain := dataObject(t, decodeJSONMap(t, resp))["id"].(string)
	createItem(t, env, aliceToken, plain, "Note")

	slugPath := func(id string) string { return fmt.Sprintf("/api/pages/%s/public-slug", id) }

	t.Run("an unpublished slug is not found", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/public/team-todo", nil, nil)
		assertStatus(t, resp, http.StatusNotFound)
	})

	t.Run("PUT publishes the page", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, slugPath(pageID), map[string]any{"public_slug": "team-todo"}, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		if dataObject(t, body)["public_slug"] != "team-todo" {
			t.Fatalf("expected slug to be set, got %+v", body["data"])
		}
	})

	t.Run("setting the same slug again is a no-op", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, slugPath(pageID), map[string]any{"public_slug": "team-todo"}, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("anyone can read the published page", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/public/team-todo", nil, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		data := dataObject(t, body)
		page, _ := data["page"].(map[string]any)
		if page["title"] != "Team todo" {
			t.Fatalf("unexpected page %+v", page)
		}
		if _, leaked := page["creator_id"]; leaked {
			t.Fatalf("public page must not expose the creator, got %+v", page)
		}

		lists, _ := data["lists"].([]any)
		if len(lists) != 2 {
			t.Fatalf("expected 2 lists, got %d", len(lists))
		}

		withBoxes := lists[0].(map[string]any)
		progress, _ := withBoxes["progress"].(map[string]any)
		if progress["checked"] != float64(1) || progress["total"] != float64(2) {
			t.Fatalf("expected progress 1/2, got %+v", withBoxes["progress"])
		}
		items := withBoxes["items"].([]any)
		if first := items[0].(map[string]any); first["checked"] != true {
			t.Fatalf("expected first item checked, got %+v", first)
		}

		plainList := lists[1].(map[string]any)
		if _, present := plainList["progress"]; present {
			t.Fatalf("expected progress to be hidden, got %+v", plainList)
		}
		note := plainList["items"].([]any)[0].(map[string]any)
		if _, present := note["checked"]; present {
			t.Fatalf("expected checked state to be hidden, got %+v", note)
		}
	})

	t.Run("a slug held by another page conflicts", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, slugPath(otherPageID), map[string]any{"public_slug": "team-todo"}, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusConflict)
	})

	t.Run("an invalid slug is rejected", func(t *testing.T) {
		for _, slug := range []string{"ab", "Has Caps", "under_score"} {
			resp := performJSONRequest(t, env.app, http.MethodPut, slugPath(otherPageID), map[string]any{"public_slug": slug}, authHeaders(aliceToken))
			body := decodeJSONMap(t, resp)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("slug %q: expected status %d, got %d", slug, http.StatusBadRequest, resp.StatusCode)
			}
			assertValidationField(t, body, "public_slug")
		}
	})

	t.Run("only the creator can publish", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, slugPath(bobsPageID), map[string]any{"public_slug": "stolen"}, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusNotFound)
	})

	t.Run("clearing the slug unpublishes the page", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, slugPath(pageID), map[string]any{"public_slug": nil}, authHeaders(aliceToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if _, present := dataObject(t, body)["public_slug"]; present {
			t.Fatalf("expected slug to be cleared, got %+v", body["data"])
		}

		resp = performRequest(t, env.app, http.MethodGet, "/api/public/team-todo", nil, nil)
		assertStatus(t, resp, http.StatusNotFound)

		resp = performJSONRequest(t, env.app, http.MethodPut, slugPath(otherPageID), map[string]any{"public_slug": "team-todo"}, authHeaders(aliceToken))
		assertStatus(t, resp, http.StatusOK)
	})
}
