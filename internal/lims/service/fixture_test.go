package service

import (
	"context"
	"testing"
	"time"

	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/repository"
	"github.com/bitfantasy/lims/internal/lims/testutil"
	"github.com/bitfantasy/lims/internal/shared/access"
	"gorm.io/gorm"
)

// limsFixture 组批场景的种子数据
type limsFixture struct {
	DB       *gorm.DB
	Repos    *repository.Repositories
	Services *Services
	Statuses map[string]entity.Status
}

// staticNamer 测试用固定命名
type staticNamer struct {
	name string
	err  error
}

func (n *staticNamer) GenerateName(ctx context.Context, entityType string) (string, error) {
	return n.name, n.err
}

func setupFixture(t *testing.T) *limsFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	statuses := testutil.SeedStatuses(t, db)
	repos := repository.NewRepositories(db)
	services := NewServices(repos, db, access.AllowAll{}, &staticNamer{name: ""})
	return &limsFixture{DB: db, Repos: repos, Services: services, Statuses: statuses}
}

func (f *limsFixture) statusID(t *testing.T, statusType, name string) string {
	t.Helper()
	st, ok := f.Statuses[statusType+"/"+name]
	if !ok {
		t.Fatalf("Status %s/%s not seeded", statusType, name)
	}
	return st.ID
}

func (f *limsFixture) seedProject(t *testing.T, id, name string) *entity.Project {
	t.Helper()
	p := &entity.Project{ID: id, Name: name, Active: true, CreatedBy: "test-user-001"}
	if err := f.DB.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return p
}

func (f *limsFixture) seedContainerType(t *testing.T, id, name string) *entity.ContainerType {
	t.Helper()
	ct := &entity.ContainerType{ID: id, Name: name, Active: true}
	if err := f.DB.Create(ct).Error; err != nil {
		t.Fatalf("Failed to seed container type: %v", err)
	}
	return ct
}

func (f *limsFixture) seedSample(t *testing.T, id, name, projectID string) *entity.Sample {
	t.Helper()
	sampled := time.Now().AddDate(0, 0, -1)
	s := &entity.Sample{
		ID: id, Name: name,
		SampleType:  "water",
		Matrix:      "surface water",
		StatusID:    f.statusID(t, entity.StatusTypeSample, entity.SampleStatusReceived),
		ProjectID:   projectID,
		DateSampled: &sampled,
		Active:      true,
		CreatedBy:   "test-user-001",
	}
	if err := f.DB.Create(s).Error; err != nil {
		t.Fatalf("Failed to seed sample: %v", err)
	}
	return s
}

func (f *limsFixture) seedContainer(t *testing.T, id, name, typeID string, sampleIDs ...string) *entity.Container {
	t.Helper()
	c := &entity.Container{
		ID: id, Name: name, ContainerTypeID: typeID,
		Active: true, CreatedBy: "test-user-001",
	}
	if err := f.DB.Create(c).Error; err != nil {
		t.Fatalf("Failed to seed container: %v", err)
	}
	for _, sid := range sampleIDs {
		if err := f.DB.Create(&entity.Contents{ContainerID: id, SampleID: sid}).Error; err != nil {
			t.Fatalf("Failed to seed contents: %v", err)
		}
	}
	return c
}

func (f *limsFixture) seedAnalysis(t *testing.T, id, name string, shelfLifeDays *int, analyteRules ...entity.AnalysisAnalyte) *entity.Analysis {
	t.Helper()
	a := &entity.Analysis{ID: id, Name: name, ShelfLifeDays: shelfLifeDays, Active: true}
	if err := f.DB.Create(a).Error; err != nil {
		t.Fatalf("Failed to seed analysis: %v", err)
	}
	for _, rule := range analyteRules {
		rule.AnalysisID = id
		if err := f.DB.Create(&rule).Error; err != nil {
			t.Fatalf("Failed to seed analysis analyte: %v", err)
		}
	}
	return a
}

func (f *limsFixture) seedAnalyte(t *testing.T, id, name, units string) *entity.Analyte {
	t.Helper()
	a := &entity.Analyte{ID: id, Name: name, Units: units, Active: true}
	if err := f.DB.Create(a).Error; err != nil {
		t.Fatalf("Failed to seed analyte: %v", err)
	}
	return a
}

func (f *limsFixture) seedTest(t *testing.T, id, sampleID, analysisID string) *entity.Test {
	t.Helper()
	tt := &entity.Test{
		ID: id, SampleID: sampleID, AnalysisID: analysisID,
		StatusID: f.statusID(t, entity.StatusTypeTest, entity.TestStatusInProcess),
		Active:   true,
	}
	if err := f.DB.Create(tt).Error; err != nil {
		t.Fatalf("Failed to seed test: %v", err)
	}
	return tt
}

func defaultPolicy() config.QCPolicy {
	return config.QCPolicy{}
}
