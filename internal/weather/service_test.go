package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weathervane/weathervane/internal/domain"
	"github.com/weathervane/weathervane/internal/geo"
)

type stubZips struct {
	zip string
	err error
}

func (s *stubZips) SavedZip(context.Context, int64) (string, error) {
	return s.zip, s.err
}

type stubGeocoder struct {
	place  geo.Place
	err    error
	gotZip string
}

func (s *stubGeocoder) Lookup(_ context.Context, zip string) (geo.Place, error) {
	s.gotZip = zip
	if s.err != nil {
		return geo.Place{}, s.err
	}
	return s.place, nil
}

type stubCurrentProvider struct {
	snap     Snapshot
	err      error
	gotLoc   Location
	gotUnits domain.Units
}

func (s *stubCurrentProvider) Current(_ context.Context, loc Location, units domain.Units) (Snapshot, error) {
	s.gotLoc = loc
	s.gotUnits = units
	if s.err != nil {
		return Snapshot{}, s.err
	}
	return s.snap, nil
}

func floatPtr(v float64) *float64 { return &v }

func chicagoSnapshot() Snapshot {
	code := 3
	return Snapshot{
		Current: CurrentConditions{
			Temp:      floatPtr(84.6),
			FeelsLike: floatPtr(89.2),
			Code:      intPtr(2),
		},
		Today: OutlookDay{
			Date:    "2026-08-21",
			Code:    &code,
			High:    floatPtr(88.3),
			Low:     floatPtr(70.2),
			Sunrise: "2026-08-21T06:07",
			Sunset:  "2026-08-21T19:48",
		},
	}
}

func TestService_CurrentByUser_ExplicitZip(t *testing.T) {
	geocoder := &stubGeocoder{place: geo.Place{City: "Chicago", State: "IL", Lat: 41.8858, Lon: -87.6181}}
	provider := &stubCurrentProvider{snap: chicagoSnapshot()}
	svc := NewService(&stubZips{}, geocoder, provider, time.UTC)

	report, err := svc.CurrentByUser(context.Background(), 42, "60601", domain.UnitsImperial)

	require.NoError(t, err)
	assert.Equal(t, "60601", geocoder.gotZip)
	assert.Equal(t, Location{Lat: 41.8858, Lon: -87.6181}, provider.gotLoc)
	assert.Equal(t, domain.UnitsImperial, provider.gotUnits)

	assert.Equal(t, "Chicago", report.City)
	assert.Equal(t, "IL", report.State)
	assert.Equal(t, "60601", report.Zip)
	assert.Equal(t, "Overcast", report.Summary, "icon and summary come from today's code")
	assert.Equal(t, "06:07 AM", report.Sunrise)
	assert.Equal(t, "07:48 PM", report.Sunset)
}

func TestService_CurrentByUser_FallsBackToSavedZip(t *testing.T) {
	geocoder := &stubGeocoder{place: geo.Place{City: "Chicago", State: "IL"}}
	provider := &stubCurrentProvider{snap: chicagoSnapshot()}
	svc := NewService(&stubZips{zip: "60601"}, geocoder, provider, time.UTC)

	report, err := svc.CurrentByUser(context.Background(), 42, "", domain.UnitsImperial)

	require.NoError(t, err)
	assert.Equal(t, "60601", geocoder.gotZip)
	assert.Equal(t, "60601", report.Zip)
}

func TestService_CurrentByUser_NoZipAnywhere(t *testing.T) {
	svc := NewService(&stubZips{}, &stubGeocoder{}, &stubCurrentProvider{}, time.UTC)

	_, err := svc.CurrentByUser(context.Background(), 42, "", domain.UnitsImperial)

	require.ErrorIs(t, err, ErrNoZip)
}

func TestService_CurrentByUser_InvalidZip(t *testing.T) {
	svc := NewService(&stubZips{}, &stubGeocoder{}, &stubCurrentProvider{}, time.UTC)

	_, err := svc.CurrentByUser(context.Background(), 42, "60601-1234", domain.UnitsImperial)

	require.ErrorIs(t, err, ErrInvalidZip, "zip+4 normalizes to nine digits and is rejected")
}

func TestService_CurrentByUser_ZipNotFound(t *testing.T) {
	geocoder := &stubGeocoder{err: geo.ErrNotFound}
	svc := NewService(&stubZips{}, geocoder, &stubCurrentProvider{}, time.UTC)

	_, err := svc.CurrentByUser(context.Background(), 42, "99999", domain.UnitsImperial)

	require.ErrorIs(t, err, geo.ErrNotFound)
}

func TestService_CurrentByUser_GeocoderDown(t *testing.T) {
	geocoder := &stubGeocoder{err: errors.New("connection refused")}
	svc := NewService(&stubZips{}, geocoder, &stubCurrentProvider{}, time.UTC)

	_, err := svc.CurrentByUser(context.Background(), 42, "60601", domain.UnitsImperial)

	require.ErrorIs(t, err, ErrUnavailable)
}

func TestService_CurrentByUser_ProviderDown(t *testing.T) {
	geocoder := &stubGeocoder{place: geo.Place{City: "Chicago", State: "IL"}}
	provider := &stubCurrentProvider{err: errors.New("timeout")}
	svc := NewService(&stubZips{}, geocoder, provider, time.UTC)

	_, err := svc.CurrentByUser(context.Background(), 42, "60601", domain.UnitsImperial)

	require.ErrorIs(t, err, ErrUnavailable)
}

func TestService_CurrentByUser_IconFallsBackToCurrentCode(t *testing.T) {
	snap := chicagoSnapshot()
	snap.Today.Code = nil

	geocoder := &stubGeocoder{place: geo.Place{City: "Chicago", State: "IL"}}
	provider := &stubCurrentProvider{snap: snap}
	svc := NewService(&stubZips{}, geocoder, provider, time.UTC)

	report, err := svc.CurrentByUser(context.Background(), 42, "60601", domain.UnitsImperial)

	require.NoError(t, err)
	assert.Equal(t, "Partly cloudy", report.Summary)
}

func moonTestService(t *testing.T, zips *stubZips, geocoder *stubGeocoder) *Service {
	t.Helper()
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	svc := NewService(zips, geocoder, &stubCurrentProvider{}, chicago)
	// 2025-03-14 was a full moon (total lunar eclipse).
	svc.clock = clockwork.NewFakeClockAt(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	return svc
}

func TestService_MoonByUser_ExplicitZip(t *testing.T) {
	geocoder := &stubGeocoder{place: geo.Place{City: "Chicago", State: "IL"}}
	svc := moonTestService(t, &stubZips{}, geocoder)

	report, err := svc.MoonByUser(context.Background(), 42, "60601")

	require.NoError(t, err)
	assert.Equal(t, "60601", geocoder.gotZip)
	assert.Equal(t, "Chicago", report.City)
	assert.Equal(t, "IL", report.State)
	assert.Equal(t, "Full Moon", report.Phase)
	assert.NotEmpty(t, report.Icon)
	assert.Equal(t, "2025-03-14", report.Date)
	assert.Equal(t, "America/Chicago", report.Timezone)
}

func TestService_MoonByUser_InvalidExplicitZip(t *testing.T) {
	svc := moonTestService(t, &stubZips{}, &stubGeocoder{})

	_, err := svc.MoonByUser(context.Background(), 42, "abc")

	require.ErrorIs(t, err, ErrInvalidZip)
}

func TestService_MoonByUser_SavedZipDecoratesPlace(t *testing.T) {
	geocoder := &stubGeocoder{place: geo.Place{City: "Chicago", State: "IL"}}
	svc := moonTestService(t, &stubZips{zip: "60601"}, geocoder)

	report, err := svc.MoonByUser(context.Background(), 42, "")

	require.NoError(t, err)
	assert.Equal(t, "60601", report.Zip)
	assert.Equal(t, "Chicago", report.City)
}

func TestService_MoonByUser_NoZipStillReportsPhase(t *testing.T) {
	geocoder := &stubGeocoder{}
	svc := moonTestService(t, &stubZips{}, geocoder)

	report, err := svc.MoonByUser(context.Background(), 42, "")

	require.NoError(t, err)
	assert.Empty(t, geocoder.gotZip, "no zip, no lookup")
	assert.Empty(t, report.City)
	assert.Equal(t, "Full Moon", report.Phase)
}

func TestService_MoonByUser_GeocoderDownStillReportsPhase(t *testing.T) {
	geocoder := &stubGeocoder{err: errors.New("connection refused")}
	svc := moonTestService(t, &stubZips{}, geocoder)

	report, err := svc.MoonByUser(context.Background(), 42, "60601")

	require.NoError(t, err)
	assert.Empty(t, report.City)
	assert.Equal(t, "Full Moon", report.Phase)
}

func TestService_MoonByUser_DateRenderedInDefaultZone(t *testing.T) {
	svc := moonTestService(t, &stubZips{}, &stubGeocoder{})
	// 02:00 UTC on the 15th is still the evening of the 14th in Chicago.
	svc.clock = clockwork.NewFakeClockAt(time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC))

	report, err := svc.MoonByUser(context.Background(), 42, "")

	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", report.Date)
}
