package importer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/registry"
	"github.com/sojunghan/territory-cli/internal/store"
	"github.com/sojunghan/territory-cli/internal/territory"
)

func collect(t *testing.T, recCh <-chan Record, errCh <-chan error) ([]Record, error) {
	t.Helper()
	var recs []Record
	for rec := range recCh {
		recs = append(recs, rec)
	}
	// Drain error channel
	for err := range errCh {
		if err != nil {
			return recs, err
		}
	}
	return recs, nil
}

func TestStreamRecords_Columns(t *testing.T) {
	input := "\ufeffOwner,Branch,Place,Lat,Lon,Kind\n" +
		"박선희,서구점,암남동,35.0772,129.0114,area\n" +
		"\n" +
		"# comment line\n" +
		"김철수,,시청,35.1796,129.0756,\n"

	recCh, errCh := StreamRecords(context.Background(), strings.NewReader(input))
	recs, err := collect(t, recCh, errCh)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, 2, recs[0].Line)
	require.NoError(t, recs[0].Err)
	assert.Equal(t, "서구점", recs[0].Request.Branch)
	assert.Equal(t, model.KindArea, recs[0].Request.Kind)
	require.NotNil(t, recs[0].Request.Location)
	assert.InDelta(t, 129.0114, recs[0].Request.Location.Lon, 1e-9)

	assert.Equal(t, 5, recs[1].Line)
	assert.Empty(t, recs[1].Request.Kind)
}

func TestStreamRecords_CompoundOwner(t *testing.T) {
	input := "owner,address,lat,lon\n" +
		"\"박선희 | 서구점 | 암남동\",부산 서구 암남동,35.0772,129.0114\n"

	recCh, errCh := StreamRecords(context.Background(), strings.NewReader(input))
	recs, err := collect(t, recCh, errCh)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	req := recs[0].Request
	assert.Equal(t, "박선희", req.Owner)
	assert.Equal(t, "서구점", req.Branch)
	assert.Equal(t, "암남동", req.Place)
	assert.Equal(t, "부산 서구 암남동", req.Address)
}

func TestStreamRecords_RowErrors(t *testing.T) {
	input := "owner,query,lat,lon,kind\n" +
		"A,,north,129,\n" +
		"B,,,,\n" +
		"C,해운대,,,circle\n" +
		"D,암남동,,,\n"

	recCh, errCh := StreamRecords(context.Background(), strings.NewReader(input))
	recs, err := collect(t, recCh, errCh)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.ErrorContains(t, recs[0].Err, "parse lat")
	assert.ErrorContains(t, recs[1].Err, "neither a query nor coordinates")
	assert.Error(t, recs[2].Err)
	assert.NoError(t, recs[3].Err)
	assert.Equal(t, "암남동", recs[3].Request.Query)
}

func TestStreamRecords_BadHeader(t *testing.T) {
	recCh, errCh := StreamRecords(context.Background(), strings.NewReader("name,lat,lon\nA,1,2\n"))
	_, err := collect(t, recCh, errCh)
	assert.ErrorContains(t, err, "no owner column")

	recCh, errCh = StreamRecords(context.Background(), strings.NewReader("owner,address\nA,x\n"))
	_, err = collect(t, recCh, errCh)
	assert.ErrorContains(t, err, "query column or lat and lon")
}

func TestStreamRecords_Empty(t *testing.T) {
	recCh, errCh := StreamRecords(context.Background(), strings.NewReader(""))
	recs, err := collect(t, recCh, errCh)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStreamRecords_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recCh, errCh := StreamRecords(ctx, strings.NewReader("owner,lat,lon\nA,35,129\n"))
	_, err := collect(t, recCh, errCh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func newTestService(t *testing.T) *territory.Service {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "claims.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	reg := registry.New(st, model.DefaultRadii())
	require.NoError(t, reg.Load(context.Background()))
	return territory.New(nil, reg)
}

func TestImport_FirstRowWins(t *testing.T) {
	svc := newTestService(t)
	input := "owner,place,lat,lon,kind\n" +
		"A,시청,37.5665,126.9780,POINT\n" +
		"B,근처,37.5674,126.9780,POINT\n" +
		",주인없음,35.0,129.0,POINT\n" +
		"C,먼곳,37.5756,126.9780,POINT\n" +
		"D,잘못,95,0,POINT\n"

	sum, err := Import(context.Background(), svc, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Accepted)
	assert.Equal(t, 1, sum.Conflicts)
	assert.Equal(t, 2, sum.Failed)
	require.Len(t, sum.Results, 5)

	assert.Equal(t, StatusAccepted, sum.Results[0].Status)
	assert.Equal(t, "A | 시청", sum.Results[0].Key)
	assert.NotEmpty(t, sum.Results[0].Claim.ID)

	assert.Equal(t, StatusConflict, sum.Results[1].Status)
	assert.Contains(t, sum.Results[1].Error, "already claimed by A")
	assert.Equal(t, 3, sum.Results[1].Line)

	assert.Equal(t, StatusFailed, sum.Results[2].Status)
	assert.Equal(t, StatusAccepted, sum.Results[3].Status)
	assert.Equal(t, StatusFailed, sum.Results[4].Status)

	assert.Equal(t, 2, svc.Registry().Len())
}

func TestImport_QueryRowsNeedGeocoder(t *testing.T) {
	svc := newTestService(t)

	sum, err := Import(context.Background(), svc, strings.NewReader("owner,query\nA,암남동\n"))
	require.NoError(t, err)
	require.Len(t, sum.Results, 1)
	assert.Equal(t, StatusFailed, sum.Results[0].Status)
	assert.Contains(t, sum.Results[0].Error, "no geocoder")
}

func TestImport_UnreadableInput(t *testing.T) {
	svc := newTestService(t)

	_, err := Import(context.Background(), svc, strings.NewReader("owner,lat,lon\n\"A,35,129\n"))
	assert.ErrorContains(t, err, "csv: read row")
}
