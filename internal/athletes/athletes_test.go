package athletes

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/lildude/strengthboard/internal/database"
	"github.com/lildude/strengthboard/internal/logger"
	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/serr"
	"github.com/lildude/strengthboard/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(v float64) *float64 { return &v }

func newService(t *testing.T) (*Service, *database.Store) {
	t.Helper()
	store := database.New(testutil.NewDB(t), logger.Discard())
	svc := NewService(store, logger.Discard())
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 22, 30, 0, 0, time.UTC) }
	return svc, store
}

func newUser(t *testing.T, store *database.Store, name string, role model.Role) *model.User {
	t.Helper()
	u, err := store.UpsertUser(context.Background(), database.UserParams{
		OpenID: "sub-" + name, Name: name, Email: name + "@example.com", Role: role,
	})
	require.NoError(t, err)
	return u
}

func assertDecimal(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	if want == "" {
		assert.False(t, got.Valid, "expected null, got %s", got.Decimal)
		return
	}
	require.True(t, got.Valid, "expected %s, got null", want)
	assert.True(t, decimal.RequireFromString(want).Equal(got.Decimal), "expected %s, got %s", want, got.Decimal)
}

func assertStatus(t *testing.T, want int, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, serr.StatusCode(err), err.Error())
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	res := svc.Import(ctx, "Name\tBw\tSquat\tBench\tDeadlift\tTotal\n"+
		"Alice\t200\t300\t200\t400\n"+
		"\n"+
		"Bob\t90\t180\tx\t220\t1000\t60\n")
	assert.Equal(t, ImportResult{SuccessCount: 2, Errors: []string{}}, res)

	alice, err := store.GetAthleteByName(ctx, "Alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assertDecimal(t, "900", alice.Total)
	assertDecimal(t, "300", alice.Squat)

	bob, err := store.GetAthleteByName(ctx, "Bob")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assertDecimal(t, "", bob.Bench)
	assertDecimal(t, "", bob.Total)
	assertDecimal(t, "60", bob.OHP)

	t.Run("reimport updates in place", func(t *testing.T) {
		res := svc.Import(ctx, "Alice\t201\t310\t200\t400")
		assert.Equal(t, 1, res.SuccessCount)

		all, err := svc.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		again, err := store.GetAthleteByName(ctx, "Alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, again.ID)
		assertDecimal(t, "910", again.Total)
	})
}

func TestImportKeepsProfileFields(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	avatar := "https://example.com/a.png"
	a, err := store.ImportAthlete(ctx, "Alice", database.AthleteUpdate{AvatarURL: &avatar})
	require.NoError(t, err)

	svc.Import(ctx, "Alice\t70\t100\t60\t120")

	got, err := store.GetAthleteByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AvatarURL)
	assert.Equal(t, avatar, *got.AvatarURL)
	assertDecimal(t, "280", got.Total)
}

func TestLeaderboardNonIncreasing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	svc.Import(ctx, "A\t80\t100\t80\t150\nB\t90\t200\t120\t250\nC\t70\t150\t100\t\nD\t60\t120\t90\t180")

	for _, exercise := range []string{"total", "squat", "bench", "deadlift", "unknown"} {
		t.Run(exercise, func(t *testing.T) {
			athletes, err := svc.Leaderboard(ctx, exercise, nil)
			require.NoError(t, err)
			require.Len(t, athletes, 4)

			col := database.LeaderboardColumn(exercise)
			value := func(a model.Athlete) decimal.NullDecimal {
				switch col {
				case "squat":
					return a.Squat
				case "bench":
					return a.Bench
				case "deadlift":
					return a.Deadlift
				}
				return a.Total
			}

			seenNull := false
			for i := 1; i < len(athletes); i++ {
				prev, cur := value(athletes[i-1]), value(athletes[i])
				if !prev.Valid {
					seenNull = true
				}
				if seenNull {
					assert.False(t, cur.Valid, "value after null at %d", i)
					continue
				}
				if cur.Valid {
					assert.True(t, prev.Decimal.GreaterThanOrEqual(cur.Decimal), "rank %d above %d", i-1, i)
				}
			}
		})
	}
}

func TestGetByIDMissing(t *testing.T) {
	svc, _ := newService(t)
	a, err := svc.GetByID(context.Background(), 4242)
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestAddLift(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	owner := newUser(t, store, "Alice", model.RoleUser)
	other := newUser(t, store, "Mallory", model.RoleUser)
	admin := newUser(t, store, "Root", model.RoleAdmin)

	svc.Import(ctx, "Alice\t70\t100\t60\t120")
	require.NoError(t, store.SyncUserAthlete(ctx, owner))
	require.NotNil(t, owner.AthleteID)
	id := *owner.AthleteID

	t.Run("owner", func(t *testing.T) {
		r, err := svc.AddLift(ctx, owner, LiftInput{
			AthleteID: id, ExerciseType: "squat", Weight: num(105), RecordedDate: "2024-03-10T23:30:00-05:00",
		})
		require.NoError(t, err)
		assertDecimal(t, "105", r.Weight)
		require.NotNil(t, r.Reps)
		assert.Equal(t, 1, *r.Reps)
		assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), r.RecordedDate.Time)
	})

	t.Run("someone else", func(t *testing.T) {
		_, err := svc.AddLift(ctx, other, LiftInput{AthleteID: id, ExerciseType: "squat", Weight: num(1), RecordedDate: "2024-03-10"})
		assertStatus(t, http.StatusForbidden, err)
		assert.Equal(t, "You do not have permission to edit this athlete profile", err.(*serr.ServiceError).Msg)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.AddLift(ctx, nil, LiftInput{AthleteID: id, ExerciseType: "squat", Weight: num(1), RecordedDate: "2024-03-10"})
		assertStatus(t, http.StatusUnauthorized, err)
	})

	t.Run("admin on missing athlete", func(t *testing.T) {
		_, err := svc.AddLift(ctx, admin, LiftInput{AthleteID: 999, ExerciseType: "squat", Weight: num(1), RecordedDate: "2024-03-10"})
		assertStatus(t, http.StatusNotFound, err)
	})

	t.Run("admin", func(t *testing.T) {
		reps := 5
		_, err := svc.AddLift(ctx, admin, LiftInput{AthleteID: id, ExerciseType: "bench", Weight: num(50), Reps: &reps, RecordedDate: "2024-03-01"})
		require.NoError(t, err)

		history, err := svc.LiftHistory(ctx, id, "")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, "bench", history[0].ExerciseType)
		assert.Equal(t, 5, *history[0].Reps)

		squats, err := svc.LiftHistory(ctx, id, "squat")
		require.NoError(t, err)
		assert.Len(t, squats, 1)
	})
}

func TestAddWeight(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	admin := newUser(t, store, "Root", model.RoleAdmin)
	svc.Import(ctx, "Alice\t70")
	a, err := store.GetAthleteByName(ctx, "Alice")
	require.NoError(t, err)

	e, err := svc.AddWeight(ctx, admin, WeightInput{AthleteID: a.ID, Weight: num(71.5), RecordedDate: "2024-02-01"})
	require.NoError(t, err)
	assertDecimal(t, "71.5", e.Weight)

	entries, err := svc.WeightHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.AddWeight(ctx, admin, WeightInput{AthleteID: a.ID, Weight: num(72), RecordedDate: "last week"})
	assertStatus(t, http.StatusBadRequest, err)
	_, err = svc.AddLift(ctx, admin, LiftInput{AthleteID: a.ID, ExerciseType: "squat", Weight: num(100)})
	assertStatus(t, http.StatusBadRequest, err)

	entries, err = svc.WeightHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdateLift(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	owner := newUser(t, store, "Alice", model.RoleUser)
	other := newUser(t, store, "Mallory", model.RoleUser)
	svc.Import(ctx, "Alice\t70\nMallory\t80")
	require.NoError(t, store.SyncUserAthlete(ctx, owner))
	require.NoError(t, store.SyncUserAthlete(ctx, other))

	lift, err := svc.AddLift(ctx, owner, LiftInput{AthleteID: *owner.AthleteID, ExerciseType: "squat", Weight: num(100), RecordedDate: "2024-03-10"})
	require.NoError(t, err)

	_, err = svc.UpdateLift(ctx, other, LiftEdit{LiftID: lift.ID, Weight: num(300)})
	assertStatus(t, http.StatusForbidden, err)

	_, err = svc.UpdateLift(ctx, owner, LiftEdit{LiftID: 999, Weight: num(300)})
	assertStatus(t, http.StatusNotFound, err)

	notes := "paused"
	got, err := svc.UpdateLift(ctx, owner, LiftEdit{LiftID: lift.ID, Weight: num(102.5), Notes: &notes})
	require.NoError(t, err)
	assertDecimal(t, "102.5", got.Weight)
	assert.Equal(t, "paused", *got.Notes)
	assert.Equal(t, 1, *got.Reps)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	owner := newUser(t, store, "Alice", model.RoleUser)
	svc.Import(ctx, "Alice\t70\t100\t60\t120\nBob\t80")
	require.NoError(t, store.SyncUserAthlete(ctx, owner))
	id := *owner.AthleteID

	t.Run("partial edit keeps total", func(t *testing.T) {
		a, err := svc.UpdateProfile(ctx, owner, ProfileUpdate{AthleteID: id, Lifts: Lifts{Squat: num(110)}})
		require.NoError(t, err)
		assertDecimal(t, "110", a.Squat)
		assertDecimal(t, "280", a.Total)
	})

	t.Run("all three recompute total", func(t *testing.T) {
		a, err := svc.UpdateProfile(ctx, owner, ProfileUpdate{AthleteID: id, Lifts: Lifts{Squat: num(110), Bench: num(65), Deadlift: num(130)}})
		require.NoError(t, err)
		assertDecimal(t, "305", a.Total)
	})

	t.Run("taken name", func(t *testing.T) {
		name := "Bob"
		_, err := svc.UpdateProfile(ctx, owner, ProfileUpdate{AthleteID: id, Name: &name})
		assertStatus(t, http.StatusConflict, err)
	})

	t.Run("not the owner", func(t *testing.T) {
		bob, err := store.GetAthleteByName(ctx, "Bob")
		require.NoError(t, err)
		_, err = svc.UpdateProfile(ctx, owner, ProfileUpdate{AthleteID: bob.ID, Lifts: Lifts{Squat: num(1)}})
		assertStatus(t, http.StatusForbidden, err)
	})
}

func TestSetupProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("name only", func(t *testing.T) {
		svc, store := newService(t)
		u := newUser(t, store, "Alice", model.RoleUser)

		a, err := svc.SetupProfile(ctx, u, Setup{Name: "Alice Smith"})
		require.NoError(t, err)
		assertDecimal(t, "", a.Total)
		require.NotNil(t, u.AthleteID)
		assert.Equal(t, a.ID, *u.AthleteID)

		lifts, err := svc.LiftHistory(ctx, a.ID, "")
		require.NoError(t, err)
		assert.Empty(t, lifts)
		weights, err := svc.WeightHistory(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, weights)

		stored, err := store.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, *stored.AthleteID)
	})

	t.Run("with lifts", func(t *testing.T) {
		svc, store := newService(t)
		u := newUser(t, store, "Alice", model.RoleUser)

		a, err := svc.SetupProfile(ctx, u, Setup{Name: "Alice", Squat: num(100), Bench: num(60), Deadlift: num(120), BodyWeight: num(70)})
		require.NoError(t, err)
		assertDecimal(t, "280", a.Total)
		require.NotNil(t, a.Email)
		assert.Equal(t, "Alice@example.com", *a.Email)

		lifts, err := svc.LiftHistory(ctx, a.ID, "")
		require.NoError(t, err)
		require.Len(t, lifts, 3)
		for _, l := range lifts {
			assert.True(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC).Equal(l.RecordedDate.Time), "recorded %s", l.RecordedDate)
			assert.Equal(t, 1, *l.Reps)
		}

		weights, err := svc.WeightHistory(ctx, a.ID)
		require.NoError(t, err)
		assert.Len(t, weights, 1)
	})

	t.Run("two of three lifts", func(t *testing.T) {
		svc, store := newService(t)
		u := newUser(t, store, "Alice", model.RoleUser)

		a, err := svc.SetupProfile(ctx, u, Setup{Name: "Alice", Squat: num(100), Bench: num(60)})
		require.NoError(t, err)
		assertDecimal(t, "", a.Total)
	})

	t.Run("claims an imported athlete", func(t *testing.T) {
		svc, store := newService(t)
		svc.Import(ctx, "Bob\t80\t150")
		u := newUser(t, store, "Robert", model.RoleUser)

		imported, err := store.GetAthleteByName(ctx, "Bob")
		require.NoError(t, err)
		a, err := svc.SetupProfile(ctx, u, Setup{Name: "Bob", Squat: num(160)})
		require.NoError(t, err)
		assert.Equal(t, imported.ID, a.ID)
		assertDecimal(t, "160", a.Squat)
		assert.Equal(t, imported.ID, *u.AthleteID)
	})

	t.Run("name linked to another user", func(t *testing.T) {
		svc, store := newService(t)
		alice := newUser(t, store, "Alice", model.RoleUser)
		mallory := newUser(t, store, "Mallory", model.RoleUser)
		admin := newUser(t, store, "Root", model.RoleAdmin)

		a, err := svc.SetupProfile(ctx, alice, Setup{Name: "Alice", Squat: num(300), Bench: num(200), Deadlift: num(400)})
		require.NoError(t, err)

		for _, u := range []*model.User{mallory, admin} {
			_, err = svc.SetupProfile(ctx, u, Setup{Name: "Alice"})
			assertStatus(t, http.StatusConflict, err)
			assert.Equal(t, "An athlete with that name already exists", err.(*serr.ServiceError).Msg)
			assert.Nil(t, u.AthleteID)
		}

		stored, err := store.GetAthleteByID(ctx, a.ID)
		require.NoError(t, err)
		assertDecimal(t, "300", stored.Squat)
		assertDecimal(t, "900", stored.Total)

		lifts, err := svc.LiftHistory(ctx, a.ID, "")
		require.NoError(t, err)
		assert.Len(t, lifts, 3)

		m, err := store.GetUserByID(ctx, mallory.ID)
		require.NoError(t, err)
		assert.Nil(t, m.AthleteID)
	})

	t.Run("rerun by the linked user", func(t *testing.T) {
		svc, store := newService(t)
		u := newUser(t, store, "Alice", model.RoleUser)

		first, err := svc.SetupProfile(ctx, u, Setup{Name: "Alice", Squat: num(100)})
		require.NoError(t, err)
		again, err := svc.SetupProfile(ctx, u, Setup{Name: "Alice", Squat: num(110)})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assertDecimal(t, "110", again.Squat)
	})
}

func TestUnavailableStore(t *testing.T) {
	ctx := context.Background()
	svc := NewService(database.New(nil, logger.Discard()), logger.Discard())
	admin := &model.User{ID: 1, Role: model.RoleAdmin}

	board, err := svc.Leaderboard(ctx, "total", nil)
	require.NoError(t, err)
	assert.Empty(t, board)

	a, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, a)

	r, err := svc.AddLift(ctx, admin, LiftInput{AthleteID: 1, ExerciseType: "squat", Weight: num(1), RecordedDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Nil(t, r)

	a, err = svc.SetupProfile(ctx, admin, Setup{Name: "Alice"})
	require.NoError(t, err)
	assert.Nil(t, a)

	assert.Equal(t, 1, svc.Import(ctx, "Alice\t1").SuccessCount)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		desc string
		in   interface{ Validate() error }
		ok   bool
	}{
		{"lift ok", &LiftInput{AthleteID: 1, ExerciseType: "squat", Weight: num(1), RecordedDate: "2024-01-01"}, true},
		{"lift distance only", &LiftInput{AthleteID: 1, ExerciseType: "sled", Distance: num(40), RecordedDate: "2024-01-01T10:00:00Z"}, true},
		{"lift without values", &LiftInput{AthleteID: 1, ExerciseType: "squat", RecordedDate: "2024-01-01"}, false},
		{"lift bad date", &LiftInput{AthleteID: 1, ExerciseType: "squat", Weight: num(1), RecordedDate: "yesterday"}, false},
		{"lift negative", &LiftInput{AthleteID: 1, ExerciseType: "squat", Weight: num(-1), RecordedDate: "2024-01-01"}, false},
		{"lift no athlete", &LiftInput{ExerciseType: "squat", Weight: num(1), RecordedDate: "2024-01-01"}, false},
		{"weight ok", &WeightInput{AthleteID: 1, Weight: num(70), RecordedDate: "2024-01-01"}, true},
		{"weight negative", &WeightInput{AthleteID: 1, Weight: num(-70), RecordedDate: "2024-01-01"}, false},
		{"weight missing", &WeightInput{AthleteID: 1, RecordedDate: "2024-01-01"}, false},
		{"weight zero", &WeightInput{AthleteID: 1, Weight: num(0), RecordedDate: "2024-01-01"}, true},
		{"edit no lift", &LiftEdit{}, false},
		{"profile empty name", &ProfileUpdate{AthleteID: 1, Name: new(string)}, false},
		{"profile negative", &ProfileUpdate{AthleteID: 1, Lifts: Lifts{OHP: num(-5)}}, false},
		{"setup blank name", &Setup{Name: "  "}, false},
		{"setup ok", &Setup{Name: "Alice", Squat: num(100)}, true},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
