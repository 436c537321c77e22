package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/testutil"
)

func createResultBatch(t *testing.T, env *testutil.TestEnv, token string) string {
	t.Helper()
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches", map[string]interface{}{
		"name":          "RUN-RESULTS",
		"container_ids": []string{"con-smp-001", "con-smp-002"},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating batch, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
}

func TestEnterResultsEndpoint(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	token := testutil.DefaultTestToken()
	seedBatchFixture(t, env.DB)
	batchID := createResultBatch(t, env, token)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches/"+batchID+"/results",
		map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"test_id": "tst-smp-001",
					"analyte_results": []map[string]interface{}{
						{"analyte_id": "alt-pb", "raw_result": "12.5", "reported_result": "12.5"},
					},
				},
				{
					"test_id": "tst-smp-002",
					"analyte_results": []map[string]interface{}{
						{"analyte_id": "alt-pb", "raw_result": "8.1", "reported_result": "8.1"},
					},
				},
			},
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	batch := resp["data"].(map[string]interface{})["batch"].(map[string]interface{})
	status := batch["status"].(map[string]interface{})
	if status["name"] != entity.BatchStatusCompleted {
		t.Errorf("Expected batch Completed after covering all analytes, got %v", status["name"])
	}
	if batch["end_date"] == nil {
		t.Errorf("Expected end_date set on completed batch")
	}
}

func TestEnterResultsEndpointValidation(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	token := testutil.DefaultTestToken()
	seedBatchFixture(t, env.DB)
	batchID := createResultBatch(t, env, token)

	// 行级错误 → 42200 + data.errors明细
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches/"+batchID+"/results",
		map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"test_id": "tst-smp-001",
					"analyte_results": []map[string]interface{}{
						{"analyte_id": "alt-pb", "raw_result": "garbage"},
						{"analyte_id": "alt-unknown", "raw_result": "1"},
					},
				},
			},
		}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 42200 {
		t.Errorf("Expected code 42200, got %v", resp["code"])
	}
	faults := resp["data"].(map[string]interface{})["errors"].([]interface{})
	if len(faults) != 2 {
		t.Errorf("Expected 2 row errors in data.errors, got %d", len(faults))
	}

	// 回滚校验
	var count int64
	env.DB.Model(&entity.Result{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no results persisted, got %d", count)
	}

	// 未知批次 → 40400
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/batches/no-such/results",
		map[string]interface{}{
			"results": []map[string]interface{}{
				{"test_id": "tst-smp-001", "analyte_results": []map[string]interface{}{}},
			},
		}, token)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestListTestResultsEndpoint(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	token := testutil.DefaultTestToken()
	seedBatchFixture(t, env.DB)
	batchID := createResultBatch(t, env, token)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches/"+batchID+"/results",
		map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"test_id": "tst-smp-001",
					"analyte_results": []map[string]interface{}{
						{"analyte_id": "alt-pb", "raw_result": "12.5", "reported_result": "12.5"},
					},
				},
			},
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 entering results, got %d: %s", w.Code, w.Body.String())
	}

	w2 := testutil.DoRequest(env.Router, "GET", "/api/v1/tests/tst-smp-001/results", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	items := testutil.ParseResponse(w2)["data"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 result row, got %d", len(items))
	}
	row := items[0].(map[string]interface{})
	if row["analyte_id"] != "alt-pb" || row["reported_result"] != "12.5" {
		t.Errorf("Unexpected result row: %v", row)
	}

	// 未录入结果的检测返回空列表
	w3 := testutil.DoRequest(env.Router, "GET", "/api/v1/tests/tst-smp-002/results", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}

	// 未知检测 → 40400
	w4 := testutil.DoRequest(env.Router, "GET", "/api/v1/tests/tst-ghost/results", nil, token)
	if w4.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown test, got %d: %s", w4.Code, w4.Body.String())
	}
}

func TestEnterResultsEndpointAuth(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	seedBatchFixture(t, env.DB)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches/any/results",
		map[string]interface{}{"results": []map[string]interface{}{}}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", w.Code)
	}
}
