package access

import (
	"context"
	"testing"
	"time"

	"elearn/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

/* ==================== MOCKS ==================== */

type MockGrantStore struct {
	mock.Mock
}

func (m *MockGrantStore) GetOrCreate(ctx context.Context, grant *domain.NoteAccess) (*domain.NoteAccess, bool, error) {
	args := m.Called(ctx, grant)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.NoteAccess), args.Bool(1), args.Error(2)
}

func (m *MockGrantStore) Save(ctx context.Context, grant *domain.NoteAccess) error {
	return m.Called(ctx, grant).Error(0)
}

func (m *MockGrantStore) GetByID(ctx context.Context, id int64) (*domain.NoteAccess, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NoteAccess), args.Error(1)
}

func (m *MockGrantStore) SetActive(ctx context.Context, id int64, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockGrantStore) ListByStudent(ctx context.Context, studentID int64) ([]domain.NoteAccess, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]domain.NoteAccess), args.Error(1)
}

func (m *MockGrantStore) ListActiveByStudentAndNote(ctx context.Context, studentID, noteID int64) ([]domain.NoteAccess, error) {
	args := m.Called(ctx, studentID, noteID)
	return args.Get(0).([]domain.NoteAccess), args.Error(1)
}

type MockNoteSource struct {
	mock.Mock
}

func (m *MockNoteSource) GetByID(ctx context.Context, id int64) (*domain.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Note), args.Error(1)
}

func (m *MockNoteSource) ListCourseNotes(ctx context.Context, productID int64) ([]domain.Note, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Note), args.Error(1)
}

/* ==================== HELPERS ==================== */

func newTestService() (*Service, *MockGrantStore, *MockNoteSource) {
	grants := &MockGrantStore{}
	notes := &MockNoteSource{}
	return NewService(grants, notes, nil), grants, notes
}

func timePtr(t time.Time) *time.Time { return &t }

/* ==================== PURCHASE GRANTS ==================== */

func TestGrantFromPurchase_LifetimeEvenWithNoteDuration(t *testing.T) {
	svc, grants, _ := newTestService()
	p := &domain.NotePurchase{ID: 77, StudentID: 20, NoteID: 5}

	grants.On("GetOrCreate", mock.Anything, mock.Anything).Return(&domain.NoteAccess{}, true, nil)

	require.NoError(t, svc.GrantFromPurchase(context.Background(), p))

	sent := grants.Calls[0].Arguments.Get(1).(*domain.NoteAccess)
	assert.Equal(t, domain.AccessPurchase, sent.AccessType)
	assert.Nil(t, sent.ValidUntil)
	assert.True(t, sent.IsActive)
	require.NotNil(t, sent.PurchaseID)
	assert.Equal(t, int64(77), *sent.PurchaseID)
	grants.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGrantFromPurchase_ReArmsExpiredGrant(t *testing.T) {
	svc, grants, _ := newTestService()
	p := &domain.NotePurchase{ID: 77, StudentID: 20, NoteID: 5}
	stale := &domain.NoteAccess{
		ID: 9, StudentID: 20, NoteID: 5, AccessType: domain.AccessPurchase,
		IsActive: false, ValidUntil: timePtr(time.Now().Add(-time.Hour)),
	}

	grants.On("GetOrCreate", mock.Anything, mock.Anything).Return(stale, false, nil)
	grants.On("Save", mock.Anything, stale).Return(nil)

	require.NoError(t, svc.GrantFromPurchase(context.Background(), p))
	assert.True(t, stale.IsActive)
	assert.Nil(t, stale.ValidUntil)
}

/* ==================== BOOKING GRANTS ==================== */

func TestGrantFromBooking_InheritsCourseExpiry(t *testing.T) {
	svc, grants, notes := newTestService()
	expiry := time.Now().AddDate(0, 0, 90)
	b := &domain.Booking{ID: 1, BookingRef: "ref-1", StudentID: 20, ProductID: 3, CourseExpiryDate: &expiry}

	notes.On("ListCourseNotes", mock.Anything, int64(3)).Return([]domain.Note{
		{ID: 5, Title: "Week 1"}, {ID: 6, Title: "Week 2"},
	}, nil)
	grants.On("GetOrCreate", mock.Anything, mock.Anything).Return(&domain.NoteAccess{}, true, nil)

	require.NoError(t, svc.GrantFromBooking(context.Background(), b))
	require.Len(t, grants.Calls, 2)
	for _, call := range grants.Calls {
		g := call.Arguments.Get(1).(*domain.NoteAccess)
		assert.Equal(t, domain.AccessCourseBooking, g.AccessType)
		assert.Equal(t, &expiry, g.ValidUntil)
		require.NotNil(t, g.BookingID)
		assert.Equal(t, int64(1), *g.BookingID)
	}
}

func TestGrantFromBooking_NoCourseNotes(t *testing.T) {
	svc, grants, notes := newTestService()
	b := &domain.Booking{ID: 1, StudentID: 20, ProductID: 3}

	notes.On("ListCourseNotes", mock.Anything, int64(3)).Return([]domain.Note{}, nil)

	require.NoError(t, svc.GrantFromBooking(context.Background(), b))
	grants.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
}

/* ==================== MANUAL & FREE ==================== */

func TestGrantManual_AdminOnly(t *testing.T) {
	svc, _, _ := newTestService()

	for _, role := range []string{"seller", "teacher", "student"} {
		_, err := svc.GrantManual(context.Background(), GrantManualRequest{StudentID: 20, NoteID: 5},
			Actor{UserID: 2, Role: role})
		assert.ErrorIs(t, err, ErrForbidden, role)
	}
}

func TestGrantManual_CreatesWithValidity(t *testing.T) {
	svc, grants, notes := newTestService()
	until := time.Now().AddDate(0, 1, 0)

	notes.On("GetByID", mock.Anything, int64(5)).Return(&domain.Note{ID: 5}, nil)
	grants.On("GetOrCreate", mock.Anything, mock.Anything).Return(&domain.NoteAccess{
		ID: 9, StudentID: 20, NoteID: 5, AccessType: domain.AccessManual, ValidUntil: &until, IsActive: true,
	}, true, nil)

	grant, err := svc.GrantManual(context.Background(), GrantManualRequest{StudentID: 20, NoteID: 5, ValidUntil: &until},
		Actor{UserID: 1, Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, &until, grant.ValidUntil)

	sent := grants.Calls[0].Arguments.Get(1).(*domain.NoteAccess)
	require.NotNil(t, sent.GrantedByID)
	assert.Equal(t, int64(1), *sent.GrantedByID)
}

func TestGrantFreeEnrollment_HonorsNoteDuration(t *testing.T) {
	svc, grants, notes := newTestService()

	notes.On("GetByID", mock.Anything, int64(5)).Return(&domain.Note{ID: 5, AccessDurationDays: 14}, nil)
	grants.On("GetOrCreate", mock.Anything, mock.Anything).Return(&domain.NoteAccess{}, true, nil)

	_, err := svc.GrantFreeEnrollment(context.Background(), 20, 5)
	require.NoError(t, err)

	sent := grants.Calls[0].Arguments.Get(1).(*domain.NoteAccess)
	assert.Equal(t, domain.AccessFreeEnrollment, sent.AccessType)
	require.NotNil(t, sent.ValidUntil)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), *sent.ValidUntil, time.Minute)
}

func TestGrantFreeEnrollment_LifetimeWhenNoDuration(t *testing.T) {
	svc, grants, notes := newTestService()

	notes.On("GetByID", mock.Anything, int64(5)).Return(&domain.Note{ID: 5}, nil)
	grants.On("GetOrCreate", mock.Anything, mock.Anything).Return(&domain.NoteAccess{}, true, nil)

	_, err := svc.GrantFreeEnrollment(context.Background(), 20, 5)
	require.NoError(t, err)

	sent := grants.Calls[0].Arguments.Get(1).(*domain.NoteAccess)
	assert.Nil(t, sent.ValidUntil)
}

/* ==================== DEACTIVATE & LIST ==================== */

func TestDeactivate(t *testing.T) {
	grant := &domain.NoteAccess{ID: 9, StudentID: 20, NoteID: 5}

	t.Run("admin revokes", func(t *testing.T) {
		svc, grants, _ := newTestService()
		grants.On("GetByID", mock.Anything, int64(9)).Return(grant, nil)
		grants.On("SetActive", mock.Anything, int64(9), false).Return(nil)

		require.NoError(t, svc.Deactivate(context.Background(), 9, Actor{UserID: 1, Role: "admin"}))
	})

	t.Run("note creator revokes", func(t *testing.T) {
		svc, grants, notes := newTestService()
		grants.On("GetByID", mock.Anything, int64(9)).Return(grant, nil)
		notes.On("GetByID", mock.Anything, int64(5)).Return(&domain.Note{ID: 5, CreatorID: 3}, nil)
		grants.On("SetActive", mock.Anything, int64(9), false).Return(nil)

		require.NoError(t, svc.Deactivate(context.Background(), 9, Actor{UserID: 3, Role: "teacher"}))
	})

	t.Run("foreign teacher forbidden", func(t *testing.T) {
		svc, grants, notes := newTestService()
		grants.On("GetByID", mock.Anything, int64(9)).Return(grant, nil)
		notes.On("GetByID", mock.Anything, int64(5)).Return(&domain.Note{ID: 5, CreatorID: 3}, nil)

		err := svc.Deactivate(context.Background(), 9, Actor{UserID: 4, Role: "teacher"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("student forbidden", func(t *testing.T) {
		svc, grants, _ := newTestService()
		grants.On("GetByID", mock.Anything, int64(9)).Return(grant, nil)

		err := svc.Deactivate(context.Background(), 9, Actor{UserID: 20, Role: "student"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("missing grant", func(t *testing.T) {
		svc, grants, _ := newTestService()
		grants.On("GetByID", mock.Anything, int64(404)).Return(nil, gorm.ErrRecordNotFound)

		err := svc.Deactivate(context.Background(), 404, Actor{UserID: 1, Role: "admin"})
		assert.ErrorIs(t, err, ErrGrantNotFound)
	})
}

func TestListGrants_Scoping(t *testing.T) {
	svc, grants, _ := newTestService()
	grants.On("ListByStudent", mock.Anything, int64(20)).Return([]domain.NoteAccess{{ID: 9}}, nil)

	// student reads their own
	out, err := svc.ListGrants(context.Background(), 20, Actor{UserID: 20, Role: "student"})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	// another student may not
	_, err = svc.ListGrants(context.Background(), 20, Actor{UserID: 21, Role: "student"})
	assert.ErrorIs(t, err, ErrForbidden)

	// admin reads anyone
	_, err = svc.ListGrants(context.Background(), 20, Actor{UserID: 1, Role: "admin"})
	assert.NoError(t, err)
}

func TestHasValidGrant(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		grants []domain.NoteAccess
		want   bool
	}{
		{"no grants", []domain.NoteAccess{}, false},
		{"active lifetime", []domain.NoteAccess{{IsActive: true}}, true},
		{"active unexpired", []domain.NoteAccess{{IsActive: true, ValidUntil: timePtr(now.Add(time.Hour))}}, true},
		{"active but expired", []domain.NoteAccess{{IsActive: true, ValidUntil: timePtr(now.Add(-time.Hour))}}, false},
		{"expired then lifetime", []domain.NoteAccess{
			{IsActive: true, ValidUntil: timePtr(now.Add(-time.Hour))},
			{IsActive: true},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, grants, _ := newTestService()
			grants.On("ListActiveByStudentAndNote", mock.Anything, int64(20), int64(5)).Return(tt.grants, nil)

			got, err := svc.HasValidGrant(context.Background(), 20, 5)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
