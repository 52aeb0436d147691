package handlers

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func TestItemsLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "alice")

	pageID := createPage(t, env, token, "Groceries")
	listID := createList(t, env, token, pageID, "Produce")
	itemsPath := fmt.Sprintf("/api/lists/%s/items", listID)

	apples := createItem(t, env, token, listID, "Apples")
	bananas := createItem(t, env, token, listID, "Bananas")
	cherries := createItem(t, env, token, listID, "Cherries")

	t.Run("GET /api/lists/:id/items is sorted by position", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, itemsPath, nil, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		if got := titles(dataArray(t, body), "content"); !reflect.DeepEqual(got, []string{"Apples", "Bananas", "Cherries"}) {
			t.Fatalf("unexpected order %v", got)
		}
	})

	t.Run("POST rejects empty and overlong content", func(t *testing.T) {
		for _, content := range []string{"  ", strings.Repeat("x", 2001)} {
			resp := performJSONRequest(t, env.app, http.MethodPost, itemsPath, map[string]any{"content": content}, authHeaders(token))
			body := decodeJSONMap(t, resp)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
			}
			assertValidationField(t, body, "content")
		}
	})

	t.Run("PATCH checks an item", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPatch, itemsPath+"/"+bananas, map[string]any{"checked": true}, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		if dataObject(t, body)["checked"] != true {
			t.Fatalf("expected item to be checked, got %+v", body["data"])
		}
	})

	t.Run("PATCH with a position moves the item", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPatch, itemsPath+"/"+cherries, map[string]any{"position": 0}, authHeaders(token))
		assertStatus(t, resp, http.StatusOK)

		resp = performRequest(t, env.app, http.MethodGet, itemsPath, nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		if got := titles(dataArray(t, body), "content"); !reflect.DeepEqual(got, []string{"Cherries", "Apples", "Bananas"}) {
			t.Fatalf("unexpected order after move %v", got)
		}
	})

	t.Run("PUT /api/lists/:id/items/reorder applies the requested order", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, itemsPath+"/reorder", map[string]any{
			"positions": []map[string]any{
				{"id": apples, "position": 10},
				{"id": bananas, "position": 20},
				{"id": cherries, "position": 30},
			},
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		if got := titles(dataArray(t, body), "content"); !reflect.DeepEqual(got, []string{"Apples", "Bananas", "Cherries"}) {
			t.Fatalf("unexpected order after reorder %v", got)
		}
	})

	t.Run("an item of another list is not found", func(t *testing.T) {
		otherList := createList(t, env, token, pageID, "Dairy")
		resp := performRequest(t, env.app, http.MethodGet, fmt.Sprintf("/api/lists/%s/items/%s", otherList, apples), nil, authHeaders(token))
		assertStatus(t, resp, http.StatusNotFound)

		resp = performJSONRequest(t, env.app, http.MethodPut, fmt.Sprintf("/api/lists/%s/items/reorder", otherList), map[string]any{
			"positions": []map[string]any{{"id": apples, "position": 0}},
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusNotFound)
	})

	t.Run("DELETE removes the item", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, itemsPath+"/"+apples, nil, authHeaders(token))
		assertStatus(t, resp, http.StatusNoContent)

		resp = performRequest(t, env.app, http.MethodGet, itemsPath+"/"+apples, nil, authHeaders(token))
		assertStatus(t, resp, http.StatusNotFound)
	})
}
