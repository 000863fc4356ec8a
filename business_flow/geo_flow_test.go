package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirphl/property-guru/app/dto"
	"github.com/amirphl/property-guru/app/services"
	"github.com/amirphl/property-guru/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeoFixture(cache services.CacheService) (*fakeDistrictRepo, *fakeAreaRepo, GeoFlow) {
	districts := newFakeDistrictRepo()
	areas := newFakeAreaRepo(districts)
	return districts, areas, NewGeoFlow(districts, areas, cache)
}

func newRedisCache(t *testing.T) (*miniredis.Miniredis, services.CacheService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, services.NewRedisCache(client, "test:", time.Minute)
}

func TestGeoFlow_Districts(t *testing.T) {
	ctx := context.Background()
	_, _, flow := newGeoFixture(nil)

	d, err := flow.CreateDistrict(ctx, &dto.CreateDistrictRequest{Name: "  Kathmandu "})
	require.NoError(t, err)
	assert.Equal(t, "Kathmandu", d.Name)

	_, err = flow.CreateDistrict(ctx, &dto.CreateDistrictRequest{Name: "Kathmandu"})
	assert.True(t, IsDistrictAlreadyExists(err))

	_, err = flow.CreateDistrict(ctx, &dto.CreateDistrictRequest{Name: "   "})
	assert.True(t, IsNameRequired(err))

	list, err := flow.ListDistricts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGeoFlow_Areas(t *testing.T) {
	ctx := context.Background()
	districts, areas, flow := newGeoFixture(nil)
	ktm := districts.put(&models.District{Name: "Kathmandu"})
	ltp := districts.put(&models.District{Name: "Lalitpur"})

	_, err := flow.CreateArea(ctx, &dto.CreateAreaRequest{Name: "Baneshwor", DistrictID: 404})
	assert.True(t, IsDistrictNotFound(err))

	area, err := flow.CreateArea(ctx, &dto.CreateAreaRequest{Name: "Baneshwor", DistrictID: ktm.ID})
	require.NoError(t, err)
	require.NotNil(t, area.District)
	assert.Equal(t, "Kathmandu", area.District.Name)

	_, err = flow.CreateArea(ctx, &dto.CreateAreaRequest{Name: "Baneshwor", DistrictID: ktm.ID})
	assert.True(t, IsAreaAlreadyExists(err))

	_, err = flow.CreateArea(ctx, &dto.CreateAreaRequest{Name: "Baneshwor", DistrictID: ltp.ID})
	require.NoError(t, err, "the same name may exist in another district")

	moved, err := flow.UpdateArea(ctx, area.ID, &dto.UpdateAreaRequest{Name: strPtr("  "), DistrictID: uintPtr(ltp.ID)})
	assert.True(t, IsAreaAlreadyExists(err), "moving onto a taken name conflicts")
	assert.Nil(t, moved)

	renamed, err := flow.UpdateArea(ctx, area.ID, &dto.UpdateAreaRequest{Name: strPtr("New Baneshwor")})
	require.NoError(t, err)
	assert.Equal(t, "New Baneshwor", renamed.Name)
	require.NotNil(t, renamed.District)
	assert.Equal(t, ktm.ID, renamed.District.ID)

	_, err = flow.UpdateArea(ctx, area.ID, &dto.UpdateAreaRequest{DistrictID: uintPtr(404)})
	assert.True(t, IsDistrictNotFound(err))

	got, err := flow.GetArea(ctx, area.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Baneshwor", got.Name)

	deleted, err := flow.DeleteArea(ctx, area.ID)
	require.NoError(t, err)
	assert.Equal(t, area.ID, deleted.ID)
	assert.Equal(t, 1, areas.size())

	_, err = flow.DeleteArea(ctx, area.ID)
	assert.True(t, IsAreaNotFound(err))
	_, err = flow.GetArea(ctx, area.ID)
	assert.True(t, IsAreaNotFound(err))
}

func TestGeoFlow_ListsAreCachedUntilWrite(t *testing.T) {
	ctx := context.Background()
	mr, cache := newRedisCache(t)
	districts, _, flow := newGeoFixture(cache)
	districts.put(&models.District{Name: "Kathmandu"})

	first, err := flow.ListDistricts(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("test:"+services.CacheKeyDistricts))

	// a row written behind the flow's back stays invisible while cached
	districts.put(&models.District{Name: "Bhaktapur"})
	cached, err := flow.ListDistricts(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	_, err = flow.CreateDistrict(ctx, &dto.CreateDistrictRequest{Name: "Lalitpur"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:"+services.CacheKeyDistricts))

	fresh, err := flow.ListDistricts(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestGeoFlow_CacheOutageFallsBackToRepository(t *testing.T) {
	ctx := context.Background()
	mr, cache := newRedisCache(t)
	districts, _, flow := newGeoFixture(cache)
	districts.put(&models.District{Name: "Kathmandu"})
	mr.Close()

	list, err := flow.ListDistricts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
