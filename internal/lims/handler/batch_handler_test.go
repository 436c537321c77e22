package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/repository"
	"github.com/bitfantasy/lims/internal/lims/service"
	"github.com/bitfantasy/lims/internal/lims/testutil"
	"github.com/bitfantasy/lims/internal/middleware"
	"github.com/bitfantasy/lims/internal/shared/access"
	"gorm.io/gorm"
)

// noopNamer 让服务走兜底命名，测试不依赖Redis
type noopNamer struct{}

func (noopNamer) GenerateName(ctx context.Context, entityType string) (string, error) {
	return "", nil
}

func setupLimsTest(t *testing.T, policy config.QCPolicy) (*testutil.TestEnv, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.SeedStatuses(t, db)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, access.AllowAll{}, noopNamer{})
	handlers := NewHandlers(services, &config.StaticPolicyProvider{Policy: policy}, NewLookupHandler(repos.Status))

	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/samples/eligible", handlers.Sample.ListEligible)
	api.GET("/tests/:id/results", handlers.Sample.ListTestResults)
	api.POST("/container-types", middleware.RequireRole("lims_manager"), handlers.Container.CreateType)
	api.POST("/batches/validate-compatibility", handlers.Batch.ValidateCompatibility)
	api.POST("/batches", handlers.Batch.Create)
	api.GET("/batches/:id", handlers.Batch.Get)
	api.DELETE("/batches/:id", middleware.RequirePermission("lims:batch:delete"), handlers.Batch.Delete)
	api.GET("/batches/:id/worksheet", handlers.Batch.Worksheet)
	api.POST("/batches/:id/results", handlers.Result.EnterResults)
	api.GET("/statuses", handlers.Lookup.ListStatuses)

	return &testutil.TestEnv{DB: db, Router: router, T: t}, repos
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("Failed to seed %T: %v", v, err)
	}
}

// seedBatchFixture 一个项目、两份可组批样品与容器
func seedBatchFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	var received, inProcess entity.Status
	db.Where("status_type = ? AND name = ?", entity.StatusTypeSample, entity.SampleStatusReceived).First(&received)
	db.Where("status_type = ? AND name = ?", entity.StatusTypeTest, entity.TestStatusInProcess).First(&inProcess)

	mustCreate(t, db, &entity.Project{ID: "proj-a", Name: "Project A", Active: true})
	mustCreate(t, db, &entity.ContainerType{ID: "ct-vial", Name: "Vial", Active: true})
	mustCreate(t, db, &entity.Analyte{ID: "alt-pb", Name: "Lead", Units: "mg/L", Active: true})
	mustCreate(t, db, &entity.Analysis{ID: "an-metals", Name: "Metals by ICP", Active: true})
	mustCreate(t, db, &entity.AnalysisAnalyte{
		AnalysisID: "an-metals", AnalyteID: "alt-pb",
		DataType: entity.DataTypeNumeric, IsRequired: true,
	})

	sampled := time.Now().AddDate(0, 0, -1)
	for i, id := range []string{"smp-001", "smp-002"} {
		mustCreate(t, db, &entity.Sample{
			ID: id, Name: "W-00" + string(rune('1'+i)),
			SampleType: "water", Matrix: "surface water",
			StatusID: received.ID, ProjectID: "proj-a",
			DateSampled: &sampled, Active: true,
		})
		mustCreate(t, db, &entity.Test{
			ID: "tst-" + id, SampleID: id, AnalysisID: "an-metals",
			StatusID: inProcess.ID, Active: true,
		})
		mustCreate(t, db, &entity.Container{
			ID: "con-" + id, Name: "C-" + id, ContainerTypeID: "ct-vial", Active: true,
		})
		mustCreate(t, db, &entity.Contents{ContainerID: "con-" + id, SampleID: id})
	}
}

func TestBatchValidateCompatibilityEndpoint(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	token := testutil.DefaultTestToken()
	seedBatchFixture(t, env.DB)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches/validate-compatibility",
		map[string]interface{}{"container_ids": []string{"con-smp-001", "con-smp-002"}}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["compatible"] != true {
		t.Errorf("Expected compatible=true, got %v", data["compatible"])
	}

	// 缺失容器 → 40400
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/batches/validate-compatibility",
		map[string]interface{}{"container_ids": []string{"con-ghost"}}, token)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", w2.Code, w2.Body.String())
	}
	resp2 := testutil.ParseResponse(w2)
	if resp2["code"].(float64) != 40400 {
		t.Errorf("Expected code 40400, got %v", resp2["code"])
	}
}

func TestBatchCreateEndpoint(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	token := testutil.DefaultTestToken()
	seedBatchFixture(t, env.DB)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches", map[string]interface{}{
		"name":          "RUN-API-1",
		"batch_type":    "environmental",
		"container_ids": []string{"con-smp-001", "con-smp-002"},
		"qc_additions":  []map[string]interface{}{{"qc_type": "blank"}},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["name"] != "RUN-API-1" {
		t.Errorf("Expected name RUN-API-1, got %v", data["name"])
	}
	batchID := data["id"].(string)
	containers := data["containers"].([]interface{})
	if len(containers) != 3 {
		t.Errorf("Expected 3 containers (2 + 1 QC), got %d", len(containers))
	}

	// 同名重复建批 → 40900
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/batches", map[string]interface{}{
		"name":          "RUN-API-1",
		"container_ids": []string{"con-smp-001"},
	}, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w2.Code, w2.Body.String())
	}

	// 查询批次
	w3 := testutil.DoRequest(env.Router, "GET", "/api/v1/batches/"+batchID, nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}

	// 删除后不可见
	w4 := testutil.DoRequest(env.Router, "DELETE", "/api/v1/batches/"+batchID, nil, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	w5 := testutil.DoRequest(env.Router, "GET", "/api/v1/batches/"+batchID, nil, token)
	if w5.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", w5.Code)
	}
}

func TestBatchQCPolicyEndpoint(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{RequiredBatchTypes: []string{"environmental"}})
	token := testutil.DefaultTestToken()
	seedBatchFixture(t, env.DB)

	// 强制QC类型缺少QC添加 → 42200
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches", map[string]interface{}{
		"name":          "RUN-NOQC",
		"batch_type":    "environmental",
		"container_ids": []string{"con-smp-001"},
	}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 42200 {
		t.Errorf("Expected code 42200, got %v", resp["code"])
	}
}

func TestBatchWorksheetEndpoint(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	token := testutil.DefaultTestToken()
	seedBatchFixture(t, env.DB)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches", map[string]interface{}{
		"name":          "RUN-WS",
		"container_ids": []string{"con-smp-001"},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	batchID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(env.Router, "GET", "/api/v1/batches/"+batchID+"/worksheet", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	if ct := w2.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Unexpected content type: %s", ct)
	}
	if w2.Body.Len() == 0 {
		t.Errorf("Expected non-empty xlsx body")
	}
}

func TestEligibleSamplesEndpoint(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	token := testutil.DefaultTestToken()
	seedBatchFixture(t, env.DB)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/samples/eligible?analysis_ids=an-metals", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	samples := data["samples"].([]interface{})
	if len(samples) != 2 {
		t.Errorf("Expected 2 eligible samples, got %d", len(samples))
	}
}

func TestBatchDeleteRequiresPermission(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	admin := testutil.DefaultTestToken()
	seedBatchFixture(t, env.DB)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/batches", map[string]interface{}{
		"name":          "RUN-GUARD",
		"container_ids": []string{"con-smp-001"},
	}, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	batchID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// 无删除权限的技术员 → 403
	tech := testutil.GenerateTestToken("tech-1", "Tech One", "tech@test.com",
		[]string{"lims_tech"}, []string{"lims:batch:read"})
	w2 := testutil.DoRequest(env.Router, "DELETE", "/api/v1/batches/"+batchID, nil, tech)
	if w2.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 without delete permission, got %d: %s", w2.Code, w2.Body.String())
	}

	// 批次仍然可见
	w3 := testutil.DoRequest(env.Router, "GET", "/api/v1/batches/"+batchID, nil, tech)
	if w3.Code != http.StatusOK {
		t.Errorf("Expected batch still visible after denied delete, got %d", w3.Code)
	}

	// 通配权限（管理员）可删
	w4 := testutil.DoRequest(env.Router, "DELETE", "/api/v1/batches/"+batchID, nil, admin)
	if w4.Code != http.StatusOK {
		t.Errorf("Expected 200 for admin delete, got %d: %s", w4.Code, w4.Body.String())
	}
}

func TestContainerTypeCreateRequiresRole(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})

	// 普通技术员角色 → 403
	tech := testutil.GenerateTestToken("tech-1", "Tech One", "tech@test.com",
		[]string{"lims_tech"}, []string{"*"})
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/container-types",
		map[string]interface{}{"name": "Amber Bottle"}, tech)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 without manager role, got %d: %s", w.Code, w.Body.String())
	}

	// 实验室管理员角色 → 201
	manager := testutil.GenerateTestToken("mgr-1", "Manager One", "mgr@test.com",
		[]string{"lims_manager"}, []string{"*"})
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/container-types",
		map[string]interface{}{"name": "Amber Bottle"}, manager)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for manager, got %d: %s", w2.Code, w2.Body.String())
	}

	// lims_admin 角色兜底放行
	admin := testutil.DefaultTestToken()
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/container-types",
		map[string]interface{}{"name": "Glass Jar"}, admin)
	if w3.Code != http.StatusCreated {
		t.Errorf("Expected 201 for admin, got %d: %s", w3.Code, w3.Body.String())
	}
}

func TestStatusLookupEndpoint(t *testing.T) {
	env, _ := setupLimsTest(t, config.QCPolicy{})
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/statuses?type=batch", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	items := resp["data"].([]interface{})
	if len(items) != 3 {
		t.Errorf("Expected 3 batch statuses, got %d", len(items))
	}
}
