package appointments

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willowtherapy/booking-platform/internal/directory"
)

type fakeDirectory struct {
	provider *directory.Provider
	client   *directory.Client
	offering *directory.Offering
}

func (f *fakeDirectory) GetProvider(_ context.Context, providerID string) (*directory.Provider, error) {
	if f.provider == nil || f.provider.ID != providerID {
		return nil, directory.ErrProviderNotFound
	}
	return f.provider, nil
}

func (f *fakeDirectory) GetProviderByUserID(_ context.Context, userID string) (*directory.Provider, error) {
	if f.provider == nil || f.provider.UserID != userID {
		return nil, directory.ErrProviderNotFound
	}
	return f.provider, nil
}

func (f *fakeDirectory) GetClient(_ context.Context, clientID string) (*directory.Client, error) {
	if f.client == nil || f.client.ID != clientID {
		return nil, directory.ErrClientNotFound
	}
	return f.client, nil
}

func (f *fakeDirectory) GetClientByUserID(_ context.Context, userID string) (*directory.Client, error) {
	if f.client == nil || f.client.UserID != userID {
		return nil, directory.ErrClientNotFound
	}
	return f.client, nil
}

func (f *fakeDirectory) ResolveClientID(_ context.Context, idOrUserID string) (string, error) {
	if f.client != nil && (f.client.ID == idOrUserID || f.client.UserID == idOrUserID) {
		return f.client.ID, nil
	}
	return "", directory.ErrClientNotFound
}

func (f *fakeDirectory) GetOffering(_ context.Context, providerID, offeringID string) (*directory.Offering, error) {
	if f.offering == nil || f.offering.ID != offeringID || f.offering.ProviderID != providerID {
		return nil, directory.ErrOfferingNotFound
	}
	return f.offering, nil
}

type fakeSlots struct {
	byDate map[string][]string
	err    error
}

func (f *fakeSlots) Resolve(_ context.Context, providerID, date string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[date], nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	booked   []*Appointment
	changed  []*Appointment
	previous []Status
}

func (n *recordingNotifier) AppointmentBooked(_ context.Context, appt *Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, appt)
}

func (n *recordingNotifier) AppointmentStatusChanged(_ context.Context, appt *Appointment, previous Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, appt)
	n.previous = append(n.previous, previous)
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) Invalidate(_ context.Context, providerID, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, providerID+"/"+date)
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{
		provider: &directory.Provider{
			ID: "prov-1", UserID: "prov-user", DisplayName: "Dr. Helena Souza",
			SessionDuration: 50, BaseSessionPrice: 120,
		},
		client: &directory.Client{
			ID: "cli-1", UserID: "cli-user", DisplayName: "Marta Lopes",
		},
		offering: &directory.Offering{
			ID: "off-1", ProviderID: "prov-1", Name: "Couples therapy", Duration: 80, Price: 200,
		},
	}
}

// Far enough out that the strict-future check never trips.
const testDate = "2030-06-10"

func testScheduler(repo Repository, slots SlotSource, notifier Notifier, cache SlotCache) *Scheduler {
	return NewScheduler(repo, testDirectory(), slots, notifier, cache, nil, nil)
}

func openSlots(times ...string) *fakeSlots {
	return &fakeSlots{byDate: map[string][]string{testDate: times}}
}

func validRequest() BookingRequest {
	return BookingRequest{
		ProviderID: "prov-1",
		ClientID:   "cli-1",
		Selection:  DefaultService(),
		Date:       testDate,
		StartTime:  "10:00",
		Mode:       ModeOnline,
	}
}

func TestBookDefaultServiceCapturesProviderTerms(t *testing.T) {
	repo := NewInMemoryRepository()
	notifier := &recordingNotifier{}
	cache := &recordingCache{}
	s := testScheduler(repo, openSlots("10:00", "11:00"), notifier, cache)

	appt, err := s.Book(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, 50, appt.Duration)
	assert.Equal(t, 120.0, appt.Price)
	assert.Equal(t, "10:50", appt.EndTime)
	assert.Empty(t, appt.OfferingID)
	assert.Equal(t, "Dr. Helena Souza", appt.ProviderName)
	assert.Equal(t, "Marta Lopes", appt.ClientName)

	require.Len(t, notifier.booked, 1)
	assert.Equal(t, []string{"prov-1/" + testDate}, cache.invalidated)
}

func TestBookNamedOfferingCapturesOfferingTerms(t *testing.T) {
	s := testScheduler(NewInMemoryRepository(), openSlots("10:00"), nil, nil)

	req := validRequest()
	req.Selection = NamedService("off-1")
	appt, err := s.Book(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "off-1", appt.OfferingID)
	assert.Equal(t, "Couples therapy", appt.ServiceName)
	assert.Equal(t, 80, appt.Duration)
	assert.Equal(t, 200.0, appt.Price)
	assert.Equal(t, "11:20", appt.EndTime)
}

func TestBookResolvesClientByUserAccount(t *testing.T) {
	repo := NewInMemoryRepository()
	s := testScheduler(repo, openSlots("10:00"), nil, nil)

	req := validRequest()
	req.ClientID = "cli-user"
	appt, err := s.Book(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cli-1", appt.ClientID)
}

func TestBookUnknownOffering(t *testing.T) {
	s := testScheduler(NewInMemoryRepository(), openSlots("10:00"), nil, nil)

	req := validRequest()
	req.Selection = NamedService("someone-elses-offering")
	_, err := s.Book(context.Background(), req)
	assert.ErrorIs(t, err, directory.ErrOfferingNotFound)
}

func TestBookUnknownProvider(t *testing.T) {
	s := testScheduler(NewInMemoryRepository(), openSlots("10:00"), nil, nil)

	req := validRequest()
	req.ProviderID = "ghost"
	_, err := s.Book(context.Background(), req)
	assert.ErrorIs(t, err, directory.ErrProviderNotFound)
}

func TestBookUnknownClient(t *testing.T) {
	s := testScheduler(NewInMemoryRepository(), openSlots("10:00"), nil, nil)

	req := validRequest()
	req.ClientID = "ghost"
	_, err := s.Book(context.Background(), req)
	assert.ErrorIs(t, err, directory.ErrClientNotFound)
}

func TestBookRejectsPastDate(t *testing.T) {
	slots := &fakeSlots{byDate: map[string][]string{"2020-01-06": {"10:00"}}}
	s := testScheduler(NewInMemoryRepository(), slots, nil, nil)

	req := validRequest()
	req.Date = "2020-01-06"
	_, err := s.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBookRejectsUndeclaredSlot(t *testing.T) {
	s := testScheduler(NewInMemoryRepository(), openSlots("09:00", "11:00"), nil, nil)

	_, err := s.Book(context.Background(), validRequest())
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "not an open slot")
}

func TestBookRejectsMissingFields(t *testing.T) {
	s := testScheduler(NewInMemoryRepository(), openSlots("10:00"), nil, nil)

	req := validRequest()
	req.StartTime = ""
	_, err := s.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBookTakenSlotConflicts(t *testing.T) {
	repo := NewInMemoryRepository()
	s := testScheduler(repo, openSlots("10:00"), nil, nil)

	_, err := s.Book(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = s.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookSessionPastMidnightRejected(t *testing.T) {
	repo := NewInMemoryRepository()
	s := testScheduler(repo, openSlots("23:30"), nil, nil)

	req := validRequest()
	req.StartTime = "23:30"

	// The 50-minute default session would end past midnight.
	_, err := s.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBookCancelledSlotReopens(t *testing.T) {
	repo := NewInMemoryRepository()
	s := testScheduler(repo, openSlots("10:00"), nil, nil)

	first, err := s.Book(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = repo.UpdateStatus(context.Background(), first.ID, StatusScheduled, StatusCancelled)
	require.NoError(t, err)

	_, err = s.Book(context.Background(), validRequest())
	assert.NoError(t, err)
}

// Two goroutines race for the same slot; the repository's conflict rule must
// let exactly one through no matter how the race lands.
func TestBookConcurrentSameSlotExactlyOneWins(t *testing.T) {
	for i := 0; i < 50; i++ {
		repo := NewInMemoryRepository()
		s := testScheduler(repo, openSlots("10:00"), nil, nil)

		start := make(chan struct{})
		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := s.Book(context.Background(), validRequest())
				errs <- err
			}()
		}
		close(start)
		wg.Wait()
		close(errs)

		var booked, conflicts int
		for err := range errs {
			switch {
			case err == nil:
				booked++
			case assert.ErrorIs(t, err, ErrSlotTaken):
				conflicts++
			}
		}
		require.Equal(t, 1, booked, "round %d", i)
		require.Equal(t, 1, conflicts, "round %d", i)

		times, err := repo.LiveStartTimes(context.Background(), "prov-1", testDate)
		require.NoError(t, err)
		require.Equal(t, []string{"10:00"}, times)
	}
}
