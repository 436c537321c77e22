package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/shared/access"
)

func seedBatchScenario(t *testing.T, f *limsFixture) {
	t.Helper()
	f.seedProject(t, "proj-a", "Project A")
	f.seedContainerType(t, "ct-vial", "Vial")
	f.seedAnalysis(t, "an-metals", "Metals by ICP", nil)

	s1 := f.seedSample(t, "smp-001", "W-001", "proj-a")
	s2 := f.seedSample(t, "smp-002", "W-002", "proj-a")
	f.seedTest(t, "tst-001", s1.ID, "an-metals")
	f.seedTest(t, "tst-002", s2.ID, "an-metals")

	f.seedContainer(t, "con-001", "C-001", "ct-vial", s1.ID)
	f.seedContainer(t, "con-002", "C-002", "ct-vial", s2.ID)
}

func TestCreateBatchWithQC(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	seedBatchScenario(t, f)

	batch, err := f.Services.Batch.CreateBatch(ctx, "user-1", CreateBatchRequest{
		Name:         "RUN-001",
		BatchType:    "environmental",
		ContainerIDs: []string{"con-001", "con-002"},
		QCAdditions: []QCAdditionRequest{
			{QCType: entity.QCTypeBlank},
			{QCType: entity.QCTypeSpike},
		},
	}, defaultPolicy())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if batch.Name != "RUN-001" {
		t.Errorf("Expected name RUN-001, got %s", batch.Name)
	}
	if batch.Status == nil || batch.Status.Name != entity.BatchStatusCreated {
		t.Errorf("Expected default Created status, got %+v", batch.Status)
	}
	// 2个普通容器 + 2个QC容器
	if len(batch.Containers) != 4 {
		t.Fatalf("Expected 4 batch containers, got %d", len(batch.Containers))
	}

	// QC样品继承参考样品（第一个容器中ID最小者）的类型与项目
	var qcSamples []entity.Sample
	if err := f.DB.Where("qc_type <> ''").Order("name").Find(&qcSamples).Error; err != nil {
		t.Fatalf("Failed to load QC samples: %v", err)
	}
	if len(qcSamples) != 2 {
		t.Fatalf("Expected 2 QC samples, got %d", len(qcSamples))
	}
	for i, qc := range qcSamples {
		if !strings.HasPrefix(qc.Name, "QC-RUN-001-") {
			t.Errorf("QC sample %d name = %s, want QC-RUN-001-N", i, qc.Name)
		}
		if qc.SampleType != "water" || qc.Matrix != "surface water" || qc.ProjectID != "proj-a" {
			t.Errorf("QC sample %d did not inherit reference fields: %+v", i, qc)
		}
		if qc.StatusID != f.statusID(t, entity.StatusTypeSample, entity.SampleStatusReceived) {
			t.Errorf("QC sample %d should start in Received", i)
		}
	}
	if qcSamples[0].QCType != entity.QCTypeBlank || qcSamples[1].QCType != entity.QCTypeSpike {
		t.Errorf("QC types not preserved in request order: %s, %s", qcSamples[0].QCType, qcSamples[1].QCType)
	}
}

func TestCreateBatchIncompatibleRejected(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.seedProject(t, "proj-a", "Project A")
	f.seedContainerType(t, "ct-vial", "Vial")
	f.seedAnalysis(t, "an-metals", "Metals by ICP", nil)
	f.seedAnalysis(t, "an-voc", "VOC", nil)

	s1 := f.seedSample(t, "smp-001", "W-001", "proj-a")
	s2 := f.seedSample(t, "smp-002", "W-002", "proj-a")
	f.seedTest(t, "tst-001", s1.ID, "an-metals")
	f.seedTest(t, "tst-002", s2.ID, "an-voc")
	f.seedContainer(t, "con-001", "C-001", "ct-vial", s1.ID)
	f.seedContainer(t, "con-002", "C-002", "ct-vial", s2.ID)

	_, err := f.Services.Batch.CreateBatch(ctx, "user-1", CreateBatchRequest{
		ContainerIDs: []string{"con-001", "con-002"},
	}, defaultPolicy())
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	// 失败不留任何批次
	var count int64
	f.DB.Model(&entity.Batch{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no batch rows after rejection, got %d", count)
	}
}

func TestCreateBatchQCRequiredPolicy(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	seedBatchScenario(t, f)

	policy := config.QCPolicy{RequiredBatchTypes: []string{"environmental"}}

	_, err := f.Services.Batch.CreateBatch(ctx, "user-1", CreateBatchRequest{
		BatchType:    "environmental",
		ContainerIDs: []string{"con-001"},
	}, policy)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError for missing QC, got %v", err)
	}

	// 非强制类型不受影响
	if _, err := f.Services.Batch.CreateBatch(ctx, "user-1", CreateBatchRequest{
		Name:         "RUN-FREE",
		BatchType:    "research",
		ContainerIDs: []string{"con-001"},
	}, policy); err != nil {
		t.Fatalf("Non-mandated batch type should pass, got %v", err)
	}
}

func TestCreateBatchInvalidStatus(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	seedBatchScenario(t, f)

	_, err := f.Services.Batch.CreateBatch(ctx, "user-1", CreateBatchRequest{
		StatusID:     "no-such-status",
		ContainerIDs: []string{"con-001"},
	}, defaultPolicy())
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError for unknown status, got %v", err)
	}

	// 样品状态不能用作批次状态
	_, err = f.Services.Batch.CreateBatch(ctx, "user-1", CreateBatchRequest{
		StatusID:     f.statusID(t, entity.StatusTypeSample, entity.SampleStatusReceived),
		ContainerIDs: []string{"con-001"},
	}, defaultPolicy())
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError for wrong status type, got %v", err)
	}
}

func TestCreateBatchNameFallback(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	seedBatchScenario(t, f)

	// 命名服务失败时回退随机兜底名，不阻塞建批
	services := NewServices(f.Repos, f.DB, access.AllowAll{}, &staticNamer{err: errors.New("redis down")})
	batch, err := services.Batch.CreateBatch(ctx, "user-1", CreateBatchRequest{
		ContainerIDs: []string{"con-001"},
	}, defaultPolicy())
	if err != nil {
		t.Fatalf("CreateBatch with failing namer should fall back: %v", err)
	}
	if !strings.HasPrefix(batch.Name, "B-") {
		t.Errorf("Expected fallback name with B- prefix, got %s", batch.Name)
	}
}

func TestCreateBatchDuplicateName(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	seedBatchScenario(t, f)

	req := CreateBatchRequest{Name: "RUN-DUP", ContainerIDs: []string{"con-001"}}
	if _, err := f.Services.Batch.CreateBatch(ctx, "user-1", req, defaultPolicy()); err != nil {
		t.Fatalf("First CreateBatch failed: %v", err)
	}

	_, err := f.Services.Batch.CreateBatch(ctx, "user-1", req, defaultPolicy())
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected ConflictError on duplicate name, got %v", err)
	}
}

func TestDeleteBatchSoftDelete(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	seedBatchScenario(t, f)

	batch, err := f.Services.Batch.CreateBatch(ctx, "user-1", CreateBatchRequest{
		Name:         "RUN-DEL",
		ContainerIDs: []string{"con-001"},
	}, defaultPolicy())
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	if err := f.Services.Batch.Delete(ctx, batch.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var notFound *NotFoundError
	if _, err := f.Services.Batch.Get(ctx, batch.ID); !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError after soft delete, got %v", err)
	}
	if err := f.Services.Batch.Delete(ctx, batch.ID); !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError deleting twice, got %v", err)
	}
}
