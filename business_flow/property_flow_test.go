package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPropertyFixture() (*fakePropertyRepo, *fakeUploader, PropertyFlow) {
	repo := newFakePropertyRepo()
	uploader := &fakeUploader{}
	return repo, uploader, NewPropertyFlow(repo, uploader, services.NewSanitizer())
}

func baseCreateReq() *dto.CreatePropertyRequest {
	price := 125000.0
	return &dto.CreatePropertyRequest{
		Title:       "Corner <b>plot</b>",
		Description: `<p>Near the lake</p><script>alert(1)</script>`,
		Category:    models.CategoryPlot,
		Features:    []string{" gated ", "<i></i>", "water"},
		SellingType: models.SellingTypeSale,
		Price:       &price,
	}
}

func TestCanEditProperty(t *testing.T) {
	owned := &models.Property{AgentID: uintPtr(10), FranchiseID: uintPtr(3)}
	unowned := &models.Property{}

	tests := []struct {
		name     string
		actor    *models.Account
		property *models.Property
		want     bool
	}{
		{"nil actor", nil, owned, false},
		{"nil property", &models.Account{Role: models.RoleSuperAdmin}, nil, false},
		{"superadmin any listing", &models.Account{Role: models.RoleSuperAdmin}, unowned, true},
		{"owning agent", &models.Account{ID: 10, Role: models.RoleAgent}, owned, true},
		{"other agent", &models.Account{ID: 11, Role: models.RoleAgent, FranchiseID: uintPtr(3)}, owned, false},
		{"owning franchise", &models.Account{ID: 20, Role: models.RoleFranchise, FranchiseID: uintPtr(3)}, owned, true},
		{"other franchise", &models.Account{ID: 21, Role: models.RoleFranchise, FranchiseID: uintPtr(4)}, owned, false},
		{"unlinked franchise", &models.Account{ID: 22, Role: models.RoleFranchise}, unowned, false},
		{"plain user", &models.Account{ID: 10, Role: models.RoleUser}, owned, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEditProperty(tt.actor, tt.property))
		})
	}
}

func TestPropertyFlow_CreateStampsOwnership(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name          string
		actor         *models.Account
		req           func(r *dto.CreatePropertyRequest)
		wantAgent     *uint
		wantFranchise *uint
		wantErr       error
	}{
		{
			name:          "agent owns and inherits franchise",
			actor:         &models.Account{ID: 10, Role: models.RoleAgent, FranchiseID: uintPtr(3)},
			wantAgent:     uintPtr(10),
			wantFranchise: uintPtr(3),
		},
		{
			name:  "agent ids in the body are ignored",
			actor: &models.Account{ID: 10, Role: models.RoleAgent},
			req: func(r *dto.CreatePropertyRequest) {
				r.AgentID = uintPtr(99)
				r.FranchiseID = uintPtr(98)
			},
			wantAgent: uintPtr(10),
		},
		{
			name:          "franchise stamps its own id",
			actor:         &models.Account{ID: 20, Role: models.RoleFranchise, FranchiseID: uintPtr(3)},
			wantFranchise: uintPtr(3),
		},
		{
			name:  "superadmin picks both",
			actor: &models.Account{ID: 1, Role: models.RoleSuperAdmin},
			req: func(r *dto.CreatePropertyRequest) {
				r.AgentID = uintPtr(10)
				r.FranchiseID = uintPtr(3)
			},
			wantAgent:     uintPtr(10),
			wantFranchise: uintPtr(3),
		},
		{
			name:    "plain user is refused",
			actor:   &models.Account{ID: 30, Role: models.RoleUser},
			wantErr: ErrInsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, flow := newPropertyFixture()
			req := baseCreateReq()
			if tt.req != nil {
				tt.req(req)
			}

			got, err := flow.CreateProperty(ctx, tt.actor, req, dto.PropertyMedia{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, repo.size())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAgent, got.AgentID)
			assert.Equal(t, tt.wantFranchise, got.FranchiseID)
			assert.Equal(t, models.PropertyStatusAvailable, got.Status)
		})
	}
}

func TestPropertyFlow_CreateSanitizesAndUploads(t *testing.T) {
	repo, uploader, flow := newPropertyFixture()
	agent := &models.Account{ID: 10, Role: models.RoleAgent}
	media := dto.PropertyMedia{
		ImagePaths: []string{tempUpload(t, "one.jpg"), tempUpload(t, "two.jpg")},
		VideoPath:  tempUpload(t, "tour.mp4"),
	}

	got, err := flow.CreateProperty(context.Background(), agent, baseCreateReq(), media)
	require.NoError(t, err)

	assert.Equal(t, "Corner plot", got.Title)
	assert.NotContains(t, got.Description, "script")
	assert.Contains(t, got.Description, "<p>Near the lake</p>")
	assert.Equal(t, []string{"gated", "water"}, []string(got.Features))

	require.Len(t, got.Images, 2)
	assert.Equal(t, "https://cdn.test/image/one.jpg", got.Images[0].URL)
	assert.Equal(t, "https://cdn.test/video/tour.mp4", got.Video)
	assert.Len(t, uploader.uploads, 3)
	assert.Equal(t, 1, repo.size())

	for _, p := range append([]string{media.VideoPath}, media.ImagePaths...) {
		assert.False(t, fileExists(p), "temp file %s left behind", p)
	}
}

func TestPropertyFlow_TooManyImages(t *testing.T) {
	repo, uploader, flow := newPropertyFixture()
	paths := make([]string, 0, 5)
	for _, n := range []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg"} {
		paths = append(paths, tempUpload(t, n))
	}

	_, err := flow.CreateProperty(context.Background(), &models.Account{ID: 1, Role: models.RoleSuperAdmin}, baseCreateReq(), dto.PropertyMedia{ImagePaths: paths})
	assert.True(t, IsTooManyImages(err))
	assert.Zero(t, repo.size())
	assert.Empty(t, uploader.uploads)
	for _, p := range paths {
		assert.False(t, fileExists(p))
	}
}

func TestPropertyFlow_CreateToleratesFailedUploads(t *testing.T) {
	_, uploader, flow := newPropertyFixture()
	uploader.fail = true

	got, err := flow.CreateProperty(context.Background(), &models.Account{ID: 10, Role: models.RoleAgent}, baseCreateReq(),
		dto.PropertyMedia{ImagePaths: []string{tempUpload(t, "a.jpg")}})
	require.NoError(t, err)
	assert.Empty(t, got.Images)
}

func TestPropertyFlow_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo, _, flow := newPropertyFixture()
	owner := &models.Account{ID: 10, Role: models.RoleAgent}
	stranger := &models.Account{ID: 11, Role: models.RoleAgent}

	listing := repo.put(&models.Property{
		Title:   "Old",
		AgentID: uintPtr(owner.ID),
		Images:  models.MediaList{{URL: "https://cdn.test/image/old.jpg"}},
		Status:  models.PropertyStatusAvailable,
	})

	_, err := flow.UpdateProperty(ctx, stranger, listing.ID, &dto.UpdatePropertyRequest{Title: strPtr("Hijack")}, dto.PropertyMedia{})
	assert.True(t, IsPropertyAccessDenied(err))
	assert.Equal(t, "Old", repo.get(listing.ID).Title)

	got, err := flow.UpdateProperty(ctx, owner, listing.ID, &dto.UpdatePropertyRequest{
		Title:  strPtr("<em>New</em>"),
		Status: strPtr(models.PropertyStatusSold),
	}, dto.PropertyMedia{})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, models.PropertyStatusSold, got.Status)
	require.Len(t, got.Images, 1, "images are kept when none are sent")

	got, err = flow.UpdateProperty(ctx, owner, listing.ID, &dto.UpdatePropertyRequest{},
		dto.PropertyMedia{ImagePaths: []string{tempUpload(t, "fresh.jpg")}})
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "https://cdn.test/image/fresh.jpg", got.Images[0].URL)

	_, err = flow.UpdateProperty(ctx, owner, 404, &dto.UpdatePropertyRequest{}, dto.PropertyMedia{})
	assert.True(t, IsPropertyNotFound(err))

	_, err = flow.DeleteProperty(ctx, stranger, listing.ID)
	assert.True(t, IsPropertyAccessDenied(err))

	deleted, err := flow.DeleteProperty(ctx, owner, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.ID, deleted.ID)
	assert.Zero(t, repo.size())

	_, err = flow.DeleteProperty(ctx, owner, listing.ID)
	assert.True(t, IsPropertyNotFound(err))
}

func TestPropertyFlow_ListAndGet(t *testing.T) {
	ctx := context.Background()
	repo, _, flow := newPropertyFixture()
	repo.put(&models.Property{Title: "Lake house", Category: models.CategoryHouse, SellingType: models.SellingTypeSale, Price: 100})
	repo.put(&models.Property{Title: "Hill plot", Category: models.CategoryPlot, SellingType: models.SellingTypeRent, Price: 50})
	repo.put(&models.Property{Title: "Lake plot", Category: models.CategoryPlot, SellingType: models.SellingTypeSale, Price: 300})

	tests := []struct {
		name  string
		query dto.PropertyListQuery
		want  []string
	}{
		{"everything newest first", dto.PropertyListQuery{}, []string{"Lake plot", "Hill plot", "Lake house"}},
		{"search", dto.PropertyListQuery{Search: " lake "}, []string{"Lake plot", "Lake house"}},
		{"category", dto.PropertyListQuery{Category: models.CategoryPlot}, []string{"Lake plot", "Hill plot"}},
		{"selling type and max price", dto.PropertyListQuery{SellingType: models.SellingTypeSale, MaxPrice: func() *float64 { v := 200.0; return &v }()}, []string{"Lake house"}},
		{"second page", dto.PropertyListQuery{Page: 2, Limit: 2}, []string{"Lake house"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			got, err := flow.ListProperties(ctx, &q)
			require.NoError(t, err)
			titles := make([]string, 0, len(got))
			for _, p := range got {
				titles = append(titles, p.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	_, err := flow.GetProperty(ctx, 404)
	assert.True(t, IsPropertyNotFound(err))
}

func TestPropertyFlow_ListMyProperties(t *testing.T) {
	ctx := context.Background()
	repo, _, flow := newPropertyFixture()
	repo.put(&models.Property{Title: "a", AgentID: uintPtr(10), FranchiseID: uintPtr(3)})
	repo.put(&models.Property{Title: "b", AgentID: uintPtr(11), FranchiseID: uintPtr(3)})
	repo.put(&models.Property{Title: "c", AgentID: uintPtr(12)})

	tests := []struct {
		name    string
		actor   *models.Account
		want    int
		wantErr error
	}{
		{"agent sees own", &models.Account{ID: 10, Role: models.RoleAgent}, 1, nil},
		{"franchise sees its listings", &models.Account{ID: 20, Role: models.RoleFranchise, FranchiseID: uintPtr(3)}, 2, nil},
		{"unlinked franchise sees nothing", &models.Account{ID: 21, Role: models.RoleFranchise}, 0, nil},
		{"user is refused", &models.Account{ID: 30, Role: models.RoleUser}, 0, ErrPropertyScope},
		{"superadmin is refused", &models.Account{ID: 1, Role: models.RoleSuperAdmin}, 0, ErrPropertyScope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flow.ListMyProperties(ctx, tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
