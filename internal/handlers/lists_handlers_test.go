package handlers

import (
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/models"
)

func TestGroceriesReorderScenario(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "alice")

	pageID := createPage(t, env, token, "Groceries")
	produceID := createList(t, env, token, pageID, "Produce")
	dairyID := createList(t, env, token, pageID, "Dairy")
	listsPath := fmt.Sprintf("/api/pages/%s/lists", pageID)

	t.Run("new lists are appended in order", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, listsPath, nil, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		lists := dataArray(t, body)
		if got := titles(lists, "title"); !reflect.DeepEqual(got, []string{"Produce", "Dairy"}) {
			t.Fatalf("expected [Produce Dairy], got %v", got)
		}
		if lists[0]["position"] != float64(0) || lists[1]["position"] != float64(1) {
			t.Fatalf("expected positions 0 and 1, got %v and %v", lists[0]["position"], lists[1]["position"])
		}
	})

	t.Run("PUT /api/pages/:id/lists/reorder swaps the lists", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, listsPath+"/reorder", map[string]any{
			"positions": []map[string]any{
				{"id": dairyID, "position": 0},
				{"id": produceID, "position": 1},
			},
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		if got := titles(dataArray(t, body), "title"); !reflect.DeepEqual(got, []string{"Dairy", "Produce"}) {
			t.Fatalf("expected [Dairy Produce] in reorder response, got %v", got)
		}

		resp = performRequest(t, env.app, http.MethodGet, listsPath, nil, authHeaders(token))
		body = decodeJSONMap(t, resp)
		if got := titles(dataArray(t, body), "title"); !reflect.DeepEqual(got, []string{"Dairy", "Produce"}) {
			t.Fatalf("expected [Dairy Produce] on re-read, got %v", got)
		}
	})
}

func TestListReorderRejectsWholeBatch(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "alice")

	pageID := createPage(t, env, token, "Chores")
	otherPageID := createPage(t, env, token, "Elsewhere")
	first := createList(t, env, token, pageID, "First")
	second := createList(t, env, token, pageID, "Second")
	third := createList(t, env, token, pageID, "Third")
	foreign := createList(t, env, token, otherPageID, "Foreign")
	reorderPath := fmt.Sprintf("/api/pages/%s/lists/reorder", pageID)

	positionsOf := func() map[string]int {
		var lists []models.List
		env.db.Where("page_id IN ?", []string{pageID, otherPageID}).Find(&lists)
		out := map[string]int{}
		for _, l := range lists {
			out[l.ID.String()] = l.Position
		}
		return out
	}
	before := positionsOf()

	t.Run("an id from another page fails with not found", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, reorderPath, map[string]any{
			"positions": []map[string]any{
				{"id": third, "position": 5},
				{"id": foreign, "position": 6},
			},
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusNotFound)
	})

	t.Run("an unknown id fails with not found", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, reorderPath, map[string]any{
			"positions": []map[string]any{
				{"id": first, "position": 0},
				{"id": uuid.NewString(), "position": 5},
			},
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusNotFound)
	})

	t.Run("duplicate positions are a validation error", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, reorderPath, map[string]any{
			"positions": []map[string]any{
				{"id": first, "position": 1},
				{"id": second, "position": 1},
			},
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
		}
		assertValidationField(t, body, "positions[1].position")
	})

	t.Run("a position held by a list outside the batch is rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, reorderPath, map[string]any{
			"positions": []map[string]any{
				{"id": first, "position": 2},
			},
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("an empty batch is rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, reorderPath, map[string]any{"positions": []any{}}, authHeaders(token))
		assertStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("no position changed after the rejected batches", func(t *testing.T) {
		if after := positionsOf(); !reflect.DeepEqual(before, after) {
			t.Fatalf("expected positions unchanged, before=%v after=%v", before, after)
		}
	})
}

func TestListsExplicitPositionAndUpdates(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "alice")

	pageID := createPage(t, env, token, "Trip")
	createList(t, env, token, pageID, "A")
	createList(t, env, token, pageID, "B")
	listsPath := fmt.Sprintf("/api/pages/%s/lists", pageID)

	t.Run("POST with an explicit position shifts later siblings", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, listsPath, map[string]any{
			"title":           "Inserted",
			"position":        1,
			"show_checkboxes": false,
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusCreated)
		data := dataObject(t, body)
		if data["position"] != float64(1) || data["show_checkboxes"] != false || data["show_progress"] != true {
			t.Fatalf("unexpected created list: %+v", data)
		}

		resp = performRequest(t, env.app, http.MethodGet, listsPath, nil, authHeaders(token))
		lists := dataArray(t, decodeJSONMap(t, resp))
		if got := titles(lists, "title"); !reflect.DeepEqual(got, []string{"A", "Inserted", "B"}) {
			t.Fatalf("expected [A Inserted B], got %v", got)
		}
		seen := map[float64]bool{}
		for _, l := range lists {
			pos := l["position"].(float64)
			if seen[pos] {
				t.Fatalf("duplicate position %v in %+v", pos, lists)
			}
			seen[pos] = true
		}
	})

	t.Run("POST with a negative position is rejected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, listsPath, map[string]any{"title": "Bad", "position": -1}, authHeaders(token))
		body := decodeJSONMap(t, resp)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
		}
		assertValidationField(t, body, "position")
	})

	t.Run("PATCH and GET a single list with its items", func(t *testing.T) {
		listID := createList(t, env, token, pageID, "Packing")
		createItem(t, env, token, listID, "Passport")
		listPath := fmt.Sprintf("%s/%s", listsPath, listID)

		resp := performJSONRequest(t, env.app, http.MethodPatch, listPath, map[string]any{
			"title":         "Packing list",
			"show_progress": false,
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		data := dataObject(t, body)
		if data["title"] != "Packing list" || data["show_progress"] != false {
			t.Fatalf("unexpected updated list: %+v", data)
		}

		resp = performRequest(t, env.app, http.MethodGet, listPath, nil, authHeaders(token))
		body = decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		items, _ := dataObject(t, body)["items"].([]any)
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
	})

	t.Run("a list addressed under the wrong page is not found", func(t *testing.T) {
		otherPage := createPage(t, env, token, "Other")
		listID := createList(t, env, token, pageID, "Mine")

		resp := performRequest(t, env.app, http.MethodGet, fmt.Sprintf("/api/pages/%s/lists/%s", otherPage, listID), nil, authHeaders(token))
		assertStatus(t, resp, http.StatusNotFound)
	})

	t.Run("DELETE removes the list and its items", func(t *testing.T) {
		listID := createList(t, env, token, pageID, "Doomed")
		createItem(t, env, token, listID, "Gone")

		resp := performRequest(t, env.app, http.MethodDelete, fmt.Sprintf("%s/%s", listsPath, listID), nil, authHeaders(token))
		assertStatus(t, resp, http.StatusNoContent)

		var items int64
		env.db.Model(&models.ListItem{}).Where("list_id = ?", listID).Count(&items)
		if items != 0 {
			t.Fatalf("expected items to be deleted, found %d", items)
		}
	})
}
