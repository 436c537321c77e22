package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectAccessChecker 项目访问能力（外部协作方，核心只消费布尔判定）
type ProjectAccessChecker interface {
	HasProjectAccess(ctx context.Context, userID, projectID string) (bool, error)
}

// NameGenerator 命名服务（尽力而为；失败由调用方兜底，不得阻塞建批）
type NameGenerator interface {
	GenerateName(ctx context.Context, entityType string) (string, error)
}

// Services 服务集合
type Services struct {
	Project       *ProjectService
	Sample        *SampleService
	Container     *ContainerService
	Analysis      *AnalysisService
	Test          *TestService
	Compatibility *CompatibilityService
	Batch         *BatchService
	Result        *ResultService
	Eligibility   *EligibilityService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, db *gorm.DB, access ProjectAccessChecker, namer NameGenerator) *Services {
	eligibility := NewEligibilityService(repos.Sample)
	compatibility := NewCompatibilityService(repos.Container, repos.Analysis, access, eligibility)

	return &Services{
		Project:       NewProjectService(repos.Project),
		Sample:        NewSampleService(repos.Sample, repos.Status),
		Container:     NewContainerService(repos.Container, repos.Sample),
		Analysis:      NewAnalysisService(repos.Analysis),
		Test:          NewTestService(repos.Test, repos.Sample, repos.Analysis, repos.Status, repos.Result),
		Compatibility: compatibility,
		Batch:         NewBatchService(repos, db, compatibility, namer),
		Result:        NewResultService(db),
		Eligibility:   eligibility,
	}
}

func newID() string {
	return uuid.New().String()[:32]
}

// ProjectService 项目服务
type ProjectService struct {
	repo *repository.ProjectRepository
}

func NewProjectService(repo *repository.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name     string     `json:"name" binding:"required"`
	ClientID string     `json:"client_id"`
	DueDate  *time.Time `json:"due_date"`
	Notes    string     `json:"notes"`
}

func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest, userID string) (*entity.Project, error) {
	p := &entity.Project{
		ID:        newID(),
		Name:      req.Name,
		ClientID:  req.ClientID,
		DueDate:   req.DueDate,
		Notes:     req.Notes,
		Active:    true,
		CreatedBy: userID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Entity: "项目", Name: req.Name}
		}
		return nil, fmt.Errorf("创建项目失败: %w", err)
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "项目", IDs: []string{id}}
		}
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, page, pageSize int) ([]entity.Project, int64, error) {
	return s.repo.List(ctx, page, pageSize)
}

func (s *ProjectService) AddMember(ctx context.Context, projectID, userID string) error {
	if _, err := s.Get(ctx, projectID); err != nil {
		return err
	}
	return s.repo.AddMember(ctx, projectID, userID)
}

// SampleService 样品服务
type SampleService struct {
	repo       *repository.SampleRepository
	statusRepo *repository.StatusRepository
}

func NewSampleService(repo *repository.SampleRepository, statusRepo *repository.StatusRepository) *SampleService {
	return &SampleService{repo: repo, statusRepo: statusRepo}
}

// CreateSampleRequest 创建样品请求
type CreateSampleRequest struct {
	Name           string     `json:"name" binding:"required"`
	SampleType     string     `json:"sample_type"`
	Matrix         string     `json:"matrix"`
	ProjectID      string     `json:"project_id" binding:"required"`
	ParentSampleID *string    `json:"parent_sample_id"`
	Temperature    *float64   `json:"temperature"`
	DueDate        *time.Time `json:"due_date"`
	DateSampled    *time.Time `json:"date_sampled"`
	Notes          string     `json:"notes"`
}

func (s *SampleService) Create(ctx context.Context, req CreateSampleRequest, userID string) (*entity.Sample, error) {
	received, err := s.statusRepo.FindByName(ctx, entity.StatusTypeSample, entity.SampleStatusReceived)
	if err != nil {
		return nil, fmt.Errorf("样品初始状态未配置: %w", err)
	}

	sample := &entity.Sample{
		ID:             newID(),
		Name:           req.Name,
		SampleType:     req.SampleType,
		Matrix:         req.Matrix,
		StatusID:       received.ID,
		ProjectID:      req.ProjectID,
		ParentSampleID: req.ParentSampleID,
		Temperature:    req.Temperature,
		DueDate:        req.DueDate,
		DateSampled:    req.DateSampled,
		Notes:          req.Notes,
		Active:         true,
		CreatedBy:      userID,
	}
	if err := s.repo.Create(ctx, sample); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Entity: "样品", Name: req.Name}
		}
		return nil, fmt.Errorf("创建样品失败: %w", err)
	}
	return sample, nil
}

func (s *SampleService) Get(ctx context.Context, id string) (*entity.Sample, error) {
	sample, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "样品", IDs: []string{id}}
		}
		return nil, err
	}
	return sample, nil
}

func (s *SampleService) List(ctx context.Context, filter repository.SampleListFilter, page, pageSize int) ([]entity.Sample, int64, error) {
	return s.repo.List(ctx, filter, page, pageSize)
}

func (s *SampleService) Delete(ctx context.Context, id string) error {
	err := s.repo.SoftDelete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Entity: "样品", IDs: []string{id}}
	}
	return err
}

// ContainerService 容器服务
type ContainerService struct {
	repo       *repository.ContainerRepository
	sampleRepo *repository.SampleRepository
}

func NewContainerService(repo *repository.ContainerRepository, sampleRepo *repository.SampleRepository) *ContainerService {
	return &ContainerService{repo: repo, sampleRepo: sampleRepo}
}

// CreateContainerRequest 创建容器请求
type CreateContainerRequest struct {
	Name              string   `json:"name" binding:"required"`
	ContainerTypeID   string   `json:"container_type_id" binding:"required"`
	ParentContainerID *string  `json:"parent_container_id"`
	Concentration     *float64 `json:"concentration"`
	ConcentrationUnit string   `json:"concentration_unit"`
	Amount            *float64 `json:"amount"`
	AmountUnit        string   `json:"amount_unit"`
}

func (s *ContainerService) Create(ctx context.Context, req CreateContainerRequest, userID string) (*entity.Container, error) {
	if _, err := s.repo.FindTypeByID(ctx, req.ContainerTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "容器类型", IDs: []string{req.ContainerTypeID}}
		}
		return nil, err
	}

	c := &entity.Container{
		ID:                newID(),
		Name:              req.Name,
		ContainerTypeID:   req.ContainerTypeID,
		ParentContainerID: req.ParentContainerID,
		Concentration:     req.Concentration,
		ConcentrationUnit: req.ConcentrationUnit,
		Amount:            req.Amount,
		AmountUnit:        req.AmountUnit,
		Active:            true,
		CreatedBy:         userID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Entity: "容器", Name: req.Name}
		}
		return nil, fmt.Errorf("创建容器失败: %w", err)
	}
	return c, nil
}

func (s *ContainerService) Get(ctx context.Context, id string) (*entity.Container, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "容器", IDs: []string{id}}
		}
		return nil, err
	}
	return c, nil
}

func (s *ContainerService) List(ctx context.Context, page, pageSize int) ([]entity.Container, int64, error) {
	return s.repo.List(ctx, page, pageSize)
}

// AddContentsRequest 添加容器内容请求
type AddContentsRequest struct {
	SampleID      string   `json:"sample_id" binding:"required"`
	Concentration *float64 `json:"concentration"`
	Amount        *float64 `json:"amount"`
}

func (s *ContainerService) AddContents(ctx context.Context, containerID string, req AddContentsRequest) (*entity.Contents, error) {
	if _, err := s.Get(ctx, containerID); err != nil {
		return nil, err
	}
	if _, err := s.sampleRepo.FindByID(ctx, req.SampleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "样品", IDs: []string{req.SampleID}}
		}
		return nil, err
	}

	c := &entity.Contents{
		ContainerID:   containerID,
		SampleID:      req.SampleID,
		Concentration: req.Concentration,
		Amount:        req.Amount,
	}
	if err := s.repo.AddContents(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError("样品已在该容器中")
		}
		return nil, fmt.Errorf("添加容器内容失败: %w", err)
	}
	return c, nil
}

// CreateContainerTypeRequest 创建容器类型请求
type CreateContainerTypeRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *ContainerService) CreateType(ctx context.Context, req CreateContainerTypeRequest) (*entity.ContainerType, error) {
	ct := &entity.ContainerType{ID: newID(), Name: req.Name, Active: true}
	if err := s.repo.CreateType(ctx, ct); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Entity: "容器类型", Name: req.Name}
		}
		return nil, err
	}
	return ct, nil
}

func (s *ContainerService) ListTypes(ctx context.Context) ([]entity.ContainerType, error) {
	return s.repo.ListTypes(ctx)
}

// AnalysisService 分析方法服务
type AnalysisService struct {
	repo *repository.AnalysisRepository
}

func NewAnalysisService(repo *repository.AnalysisRepository) *AnalysisService {
	return &AnalysisService{repo: repo}
}

// AnalyteRuleRequest 单条分析物规则
type AnalyteRuleRequest struct {
	AnalyteID    string   `json:"analyte_id" binding:"required"`
	DataType     string   `json:"data_type"`
	LowValue     *float64 `json:"low_value"`
	HighValue    *float64 `json:"high_value"`
	SigFigs      *int     `json:"sig_figs"`
	IsRequired   *bool    `json:"is_required"`
	DisplayOrder int      `json:"display_order"`
	DefaultValue string   `json:"default_value"`
}

// CreateAnalysisRequest 创建分析方法请求（含分析物规则）
type CreateAnalysisRequest struct {
	Name          string               `json:"name" binding:"required"`
	Description   string               `json:"description"`
	ShelfLifeDays *int                 `json:"shelf_life_days"`
	Analytes      []AnalyteRuleRequest `json:"analytes"`
}

func (s *AnalysisService) Create(ctx context.Context, req CreateAnalysisRequest) (*entity.Analysis, error) {
	a := &entity.Analysis{
		ID:            newID(),
		Name:          req.Name,
		Description:   req.Description,
		ShelfLifeDays: req.ShelfLifeDays,
		Active:        true,
	}
	for i, rule := range req.Analytes {
		dataType := rule.DataType
		if dataType == "" {
			dataType = entity.DataTypeNumeric
		}
		if dataType != entity.DataTypeNumeric && dataType != entity.DataTypeText {
			return nil, newValidationError("不支持的数据类型: %s", dataType)
		}
		required := true
		if rule.IsRequired != nil {
			required = *rule.IsRequired
		}
		order := rule.DisplayOrder
		if order == 0 {
			order = i + 1
		}
		a.Analytes = append(a.Analytes, entity.AnalysisAnalyte{
			AnalysisID:   a.ID,
			AnalyteID:    rule.AnalyteID,
			DataType:     dataType,
			LowValue:     rule.LowValue,
			HighValue:    rule.HighValue,
			SigFigs:      rule.SigFigs,
			IsRequired:   required,
			DisplayOrder: order,
			DefaultValue: rule.DefaultValue,
		})
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Entity: "分析方法", Name: req.Name}
		}
		return nil, fmt.Errorf("创建分析方法失败: %w", err)
	}
	return a, nil
}

func (s *AnalysisService) Get(ctx context.Context, id string) (*entity.Analysis, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "分析方法", IDs: []string{id}}
		}
		return nil, err
	}
	return a, nil
}

func (s *AnalysisService) List(ctx context.Context) ([]entity.Analysis, error) {
	return s.repo.List(ctx)
}

// CreateAnalyteRequest 创建分析物请求
type CreateAnalyteRequest struct {
	Name  string `json:"name" binding:"required"`
	Units string `json:"units"`
}

func (s *AnalysisService) CreateAnalyte(ctx context.Context, req CreateAnalyteRequest) (*entity.Analyte, error) {
	a := &entity.Analyte{ID: newID(), Name: req.Name, Units: req.Units, Active: true}
	if err := s.repo.CreateAnalyte(ctx, a); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Entity: "分析物", Name: req.Name}
		}
		return nil, err
	}
	return a, nil
}

func (s *AnalysisService) ListAnalytes(ctx context.Context) ([]entity.Analyte, error) {
	return s.repo.ListAnalytes(ctx)
}

// TestService 检测服务
type TestService struct {
	repo         *repository.TestRepository
	sampleRepo   *repository.SampleRepository
	analysisRepo *repository.AnalysisRepository
	statusRepo   *repository.StatusRepository
	resultRepo   *repository.ResultRepository
}

func NewTestService(
	repo *repository.TestRepository,
	sampleRepo *repository.SampleRepository,
	analysisRepo *repository.AnalysisRepository,
	statusRepo *repository.StatusRepository,
	resultRepo *repository.ResultRepository,
) *TestService {
	return &TestService{repo: repo, sampleRepo: sampleRepo, analysisRepo: analysisRepo, statusRepo: statusRepo, resultRepo: resultRepo}
}

// CreateTestRequest 创建检测请求
type CreateTestRequest struct {
	SampleID     string  `json:"sample_id" binding:"required"`
	AnalysisID   string  `json:"analysis_id" binding:"required"`
	TechnicianID *string `json:"technician_id"`
}

func (s *TestService) Create(ctx context.Context, req CreateTestRequest) (*entity.Test, error) {
	if _, err := s.sampleRepo.FindByID(ctx, req.SampleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "样品", IDs: []string{req.SampleID}}
		}
		return nil, err
	}
	if _, err := s.analysisRepo.FindByID(ctx, req.AnalysisID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "分析方法", IDs: []string{req.AnalysisID}}
		}
		return nil, err
	}
	inProcess, err := s.statusRepo.FindByName(ctx, entity.StatusTypeTest, entity.TestStatusInProcess)
	if err != nil {
		return nil, fmt.Errorf("检测初始状态未配置: %w", err)
	}

	t := &entity.Test{
		ID:           newID(),
		SampleID:     req.SampleID,
		AnalysisID:   req.AnalysisID,
		StatusID:     inProcess.ID,
		TechnicianID: req.TechnicianID,
		Active:       true,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("创建检测失败: %w", err)
	}
	return t, nil
}

func (s *TestService) ListBySample(ctx context.Context, sampleID string) ([]entity.Test, error) {
	return s.repo.ListBySample(ctx, sampleID)
}

// ListResults 列出检测的活跃结果
func (s *TestService) ListResults(ctx context.Context, testID string) ([]entity.Result, error) {
	if _, err := s.repo.FindByID(ctx, testID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "检测", IDs: []string{testID}}
		}
		return nil, err
	}
	return s.resultRepo.ListByTest(ctx, testID)
}
