package bootstrap

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/config"
	"github.com/qctrack/qctrack-backend/internal/importer"
	"github.com/qctrack/qctrack-backend/internal/lookup/cache"
	lookup "github.com/qctrack/qctrack-backend/internal/lookup/domain"
	lookuprepo "github.com/qctrack/qctrack-backend/internal/lookup/repository"
	lookupsvc "github.com/qctrack/qctrack-backend/internal/lookup/service"
	mdrepo "github.com/qctrack/qctrack-backend/internal/masterdata/repository"
	mdsvc "github.com/qctrack/qctrack-backend/internal/masterdata/service"
	projectrepo "github.com/qctrack/qctrack-backend/internal/projects/repository"
	projectsvc "github.com/qctrack/qctrack-backend/internal/projects/service"
	qcrepo "github.com/qctrack/qctrack-backend/internal/qc/repository"
	qcsvc "github.com/qctrack/qctrack-backend/internal/qc/service"
	reportrepo "github.com/qctrack/qctrack-backend/internal/reports/repository"
	reportsvc "github.com/qctrack/qctrack-backend/internal/reports/service"
	"github.com/qctrack/qctrack-backend/internal/storage/blob"
	usersrepo "github.com/qctrack/qctrack-backend/internal/users/repository"
	userssvc "github.com/qctrack/qctrack-backend/internal/users/service"
)

// Infra holds the shared connections. Redis, Pool and Blobs are optional.
type Infra struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *sql.DB
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	Blobs  *blob.Store
}

type Services struct {
	Lookups *lookupsvc.LookupService

	Divisions           *mdsvc.NamedService
	ErrorCategories     *mdsvc.NamedService
	ResourceRoles       *mdsvc.NamedService
	Products            *mdsvc.ProductService
	ErrorSubCategories  *mdsvc.ErrorSubCategoryService
	DrawingDescriptions *mdsvc.DrawingDescriptionService
	Resources           *mdsvc.ResourceService

	Projects   *projectsvc.ProjectService
	Activities *projectsvc.ActivityService

	Discrepancies  *qcsvc.DiscrepancyService
	Clarifications *qcsvc.ClarificationService

	Users   *userssvc.UserService
	Reports *reportsvc.ReportService

	// Importer is nil when no pgx pool is configured.
	Importer *importer.Importer
}

// NewServices wires repositories and services over in.
func NewServices(in Infra) *Services {
	var lookupCache *cache.Cache
	if in.Redis != nil {
		lookupCache = cache.New(in.Redis, in.Config.Redis.LookupCacheTTL)
	}
	lookups := lookupsvc.NewLookupService(lookuprepo.New(in.DB), lookupCache, in.Log.Named("lookup"))

	categories := mdrepo.NewErrorCategoryRepository(in.DB)

	s := &Services{
		Lookups: lookups,

		Divisions:           mdsvc.NewNamedService(mdrepo.NewDivisionRepository(in.DB), lookup.KindDivisions, lookups),
		ErrorCategories:     mdsvc.NewNamedService(categories, lookup.KindErrorCategories, lookups),
		ResourceRoles:       mdsvc.NewNamedService(mdrepo.NewResourceRoleRepository(in.DB), lookup.KindResourceRoles, lookups),
		Products:            mdsvc.NewProductService(mdrepo.NewProductRepository(in.DB), lookups),
		ErrorSubCategories:  mdsvc.NewErrorSubCategoryService(mdrepo.NewErrorSubCategoryRepository(in.DB), categories, lookups),
		DrawingDescriptions: mdsvc.NewDrawingDescriptionService(mdrepo.NewDrawingDescriptionRepository(in.DB), lookups),
		Resources:           mdsvc.NewResourceService(mdrepo.NewResourceRepository(in.DB), lookups),

		Projects:   projectsvc.NewProjectService(projectrepo.NewProjectRepository(in.DB), lookups),
		Activities: projectsvc.NewActivityService(projectrepo.NewActivityRepository(in.DB)),

		Clarifications: qcsvc.NewClarificationService(qcrepo.NewClarificationRepository(in.DB)),

		Users:   userssvc.NewUserService(usersrepo.NewUserRepository(in.DB)),
		Reports: reportsvc.NewReportService(reportrepo.NewReportRepository(in.DB)),
	}

	// A nil *blob.Store must not reach the service as a non-nil interface.
	var blobs qcsvc.BlobStore
	if in.Blobs != nil {
		blobs = in.Blobs
	}
	s.Discrepancies = qcsvc.NewDiscrepancyService(qcrepo.NewDiscrepancyRepository(in.DB), blobs)

	if in.Pool != nil {
		s.Importer = importer.New(in.Pool)
	}
	return s
}
