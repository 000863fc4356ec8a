package businessflow

import (
	"context"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/models"
	"github.com/amirphl/property-guru/repository"
	"github.com/amirphl/property-guru/utils"
)

// Pie colors of the superadmin dashboard
const (
	pieColorUsers      = "#2e7a66"
	pieColorFranchise  = "#ffc107"
	pieColorProperties = "#17a2b8"
)

// DashboardFlow computes the franchise and superadmin dashboards
type DashboardFlow interface {
	FranchiseDashboard(ctx context.Context, actor *models.Account, franchiseID uint) (*dto.FranchiseDashboardResponse, error)
	SuperAdminDashboard(ctx context.Context) (*dto.SuperAdminDashboardResponse, error)
}

// DashboardFlowImpl implements DashboardFlow
type DashboardFlowImpl struct {
	accountRepo   repository.AccountRepository
	franchiseRepo repository.FranchiseRepository
	propertyRepo  repository.PropertyRepository
}

func NewDashboardFlow(accountRepo repository.AccountRepository, franchiseRepo repository.FranchiseRepository, propertyRepo repository.PropertyRepository) DashboardFlow {
	return &DashboardFlowImpl{
		accountRepo:   accountRepo,
		franchiseRepo: franchiseRepo,
		propertyRepo:  propertyRepo,
	}
}

func (df *DashboardFlowImpl) FranchiseDashboard(ctx context.Context, actor *models.Account, franchiseID uint) (*dto.FranchiseDashboardResponse, error) {
	if franchiseID == 0 {
		return nil, NewBusinessError("FRANCHISE_DASHBOARD_FAILED", "Failed to build franchise dashboard", ErrFranchiseIDRequired)
	}
	if !CanManageFranchise(actor, franchiseID) {
		return nil, NewBusinessError("FRANCHISE_DASHBOARD_FAILED", "Failed to build franchise dashboard", ErrOutOfScope)
	}

	agentCount, err := df.accountRepo.Count(ctx, models.AccountFilter{
		Role:        utils.ToPtr(models.RoleAgent),
		FranchiseID: utils.ToPtr(franchiseID),
	})
	if err != nil {
		return nil, NewBusinessError("FRANCHISE_DASHBOARD_FAILED", "Failed to build franchise dashboard", err)
	}

	counts, err := df.countProperties(ctx,
		models.PropertyFilter{FranchiseID: utils.ToPtr(franchiseID)},
		models.PropertyFilter{FranchiseID: utils.ToPtr(franchiseID), Category: utils.ToPtr(models.CategoryHouse)},
		models.PropertyFilter{FranchiseID: utils.ToPtr(franchiseID), Category: utils.ToPtr(models.CategoryPlot)},
	)
	if err != nil {
		return nil, NewBusinessError("FRANCHISE_DASHBOARD_FAILED", "Failed to build franchise dashboard", err)
	}
	propertyCount, houseCount, plotCount := counts[0], counts[1], counts[2]

	return &dto.FranchiseDashboardResponse{
		AgentCount:    agentCount,
		PropertyCount: propertyCount,
		HouseCount:    houseCount,
		PlotCount:     plotCount,
		ChartData: []dto.ChartSlice{
			{Name: "Houses", Value: houseCount},
			{Name: "Plots", Value: plotCount},
			{Name: "Other Properties", Value: max(propertyCount-houseCount-plotCount, 0)},
		},
	}, nil
}

func (df *DashboardFlowImpl) SuperAdminDashboard(ctx context.Context) (*dto.SuperAdminDashboardResponse, error) {
	users, err := df.accountRepo.Count(ctx, models.AccountFilter{})
	if err != nil {
		return nil, NewBusinessError("SUPERADMIN_DASHBOARD_FAILED", "Failed to build dashboard", err)
	}
	franchises, err := df.franchiseRepo.Count(ctx, models.FranchiseFilter{})
	if err != nil {
		return nil, NewBusinessError("SUPERADMIN_DASHBOARD_FAILED", "Failed to build dashboard", err)
	}

	counts, err := df.countProperties(ctx,
		models.PropertyFilter{},
		models.PropertyFilter{Category: utils.ToPtr(models.CategoryPlot)},
		models.PropertyFilter{Category: utils.ToPtr(models.CategoryHouse)},
		models.PropertyFilter{SellingType: utils.ToPtr(models.SellingTypeSale)},
	)
	if err != nil {
		return nil, NewBusinessError("SUPERADMIN_DASHBOARD_FAILED", "Failed to build dashboard", err)
	}

	stats := dto.SuperAdminStats{
		Users:      users,
		Franchise:  franchises,
		Properties: counts[0],
		Plots:      counts[1],
		Houses:     counts[2],
		OnSale:     counts[3],
	}

	return &dto.SuperAdminDashboardResponse{
		Stats: stats,
		Pie: []dto.ChartSlice{
			{Name: "Users", Value: stats.Users, Color: pieColorUsers},
			{Name: "Franchise", Value: stats.Franchise, Color: pieColorFranchise},
			{Name: "Properties", Value: stats.Properties, Color: pieColorProperties},
		},
	}, nil
}

func (df *DashboardFlowImpl) countProperties(ctx context.Context, filters ...models.PropertyFilter) ([]int64, error) {
	counts := make([]int64, len(filters))
	for i, f := range filters {
		n, err := df.propertyRepo.Count(ctx, f)
		if err != nil {
			return nil, err
		}
		counts[i] = n
	}
	return counts, nil
}
