package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/store/storetest"
)

func TestCreateRiskAssessment(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p := createPatient(t, s, "MRN-001")
	u, err := s.CreateUser(ctx, newUser("clin"))
	require.NoError(t, err)

	ra := &models.RiskAssessment{
		PatientID:       p.ID,
		RiskScore:       42,
		ClinicalFactors: map[string]interface{}{"age": 71, "copd": true},
		AssessmentType:  "readmission",
		CreatedBy:       &u.ID,
	}
	alert, err := s.CreateRiskAssessment(ctx, ra)
	require.NoError(t, err)
	assert.Nil(t, alert)
	assert.Equal(t, models.RiskMedium, ra.RiskCategory)
	assert.False(t, ra.AssessmentDate.IsZero())

	got, err := s.GetRiskAssessment(ctx, ra.ID)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.RiskScore)
	assert.Equal(t, true, got.ClinicalFactors["copd"])
}

func TestCreateRiskAssessment_Rejected(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p := createPatient(t, s, "MRN-001")
	ghost := "no-such-user"

	tests := []struct {
		name string
		ra   models.RiskAssessment
		want error
	}{
		{"score 150", models.RiskAssessment{PatientID: p.ID, RiskScore: 150}, store.ErrConstraintViolation},
		{"negative score", models.RiskAssessment{PatientID: p.ID, RiskScore: -0.5}, store.ErrConstraintViolation},
		{"unknown category", models.RiskAssessment{PatientID: p.ID, RiskScore: 10, RiskCategory: "severe"}, store.ErrConstraintViolation},
		{"unknown patient", models.RiskAssessment{PatientID: "missing", RiskScore: 10}, store.ErrNotFound},
		{"unknown creator", models.RiskAssessment{PatientID: p.ID, RiskScore: 10, CreatedBy: &ghost}, store.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ra := tt.ra
			_, err := s.CreateRiskAssessment(ctx, &ra)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, total, err := s.ListRiskAssessments(ctx, p.ID, store.Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateRiskAssessment_TriggersAlert(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p := createPatient(t, s, "MRN-001")

	alert, err := s.CreateRiskAssessment(ctx, &models.RiskAssessment{
		PatientID:      p.ID,
		RiskScore:      91,
		AlertTriggered: true,
		AlertMessage:   "Sepsis risk above threshold",
		AssessmentType: "sepsis",
	})
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertTypeCritical, alert.AlertType)
	assert.Equal(t, models.RiskCritical, alert.Severity)
	assert.Equal(t, models.AlertStatusActive, alert.Status)
	assert.Equal(t, "Sepsis risk above threshold", alert.Message)

	alerts, total, err := s.ListAlerts(ctx, store.AlertFilter{PatientID: p.ID}, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, alert.ID, alerts[0].ID)
}

func TestLatestRiskAssessment(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p := createPatient(t, s, "MRN-001")

	_, err := s.LatestRiskAssessment(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, score := range []float64{10, 80, 30} {
		_, err := s.CreateRiskAssessment(ctx, &models.RiskAssessment{
			PatientID:      p.ID,
			RiskScore:      score,
			AssessmentDate: base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	latest, err := s.LatestRiskAssessment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, latest.RiskScore)
	assert.Equal(t, models.RiskMedium, latest.RiskCategory)
}

func TestAlertLifecycle(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p := createPatient(t, s, "MRN-001")
	u, err := s.CreateUser(ctx, newUser("nurse"))
	require.NoError(t, err)

	a := &models.Alert{
		PatientID: p.ID,
		AlertType: models.AlertTypeWarning,
		Title:     "SpO2 trending down",
		Status:    models.AlertStatusResolved,
	}
	require.NoError(t, s.CreateAlert(ctx, a))
	assert.Equal(t, models.AlertStatusActive, a.Status, "new alerts always start active")

	_, err = s.AcknowledgeAlert(ctx, a.ID, "no-such-user")
	assert.ErrorIs(t, err, store.ErrNotFound)

	acked, err := s.AcknowledgeAlert(ctx, a.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedBy)
	assert.Equal(t, u.ID, *acked.AcknowledgedBy)
	assert.NotNil(t, acked.AcknowledgedAt)

	_, err = s.AcknowledgeAlert(ctx, a.ID, u.ID)
	assert.ErrorIs(t, err, store.ErrConstraintViolation)

	resolved, err := s.ResolveAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = s.ResolveAlert(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrConstraintViolation)
	_, err = s.AcknowledgeAlert(ctx, a.ID, u.ID)
	assert.ErrorIs(t, err, store.ErrConstraintViolation)

	_, err = s.ResolveAlert(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolveAlert_FromActive(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p := createPatient(t, s, "MRN-001")
	a := &models.Alert{PatientID: p.ID, AlertType: models.AlertTypeInfo, Title: "Lab result ready"}
	require.NoError(t, s.CreateAlert(ctx, a))

	got, err := s.ResolveAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, got.Status)
	assert.Nil(t, got.AcknowledgedBy)
}

func TestListAlerts_Filters(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p1 := createPatient(t, s, "MRN-001")
	p2 := createPatient(t, s, "MRN-002")

	for _, pid := range []string{p1.ID, p1.ID, p2.ID} {
		require.NoError(t, s.CreateAlert(ctx, &models.Alert{PatientID: pid, AlertType: models.AlertTypeWarning, Title: "check"}))
	}
	first, _, err := s.ListAlerts(ctx, store.AlertFilter{PatientID: p1.ID}, store.Page{Limit: 1})
	require.NoError(t, err)
	_, err = s.ResolveAlert(ctx, first[0].ID)
	require.NoError(t, err)

	_, total, err := s.ListAlerts(ctx, store.AlertFilter{}, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	_, total, err = s.ListAlerts(ctx, store.AlertFilter{Status: models.AlertStatusActive}, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, total, err = s.ListAlerts(ctx, store.AlertFilter{PatientID: p1.ID, Status: models.AlertStatusActive}, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, _, err = s.ListAlerts(ctx, store.AlertFilter{PatientID: "missing"}, store.Page{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateAlert_Invalid(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p := createPatient(t, s, "MRN-001")

	assert.ErrorIs(t, s.CreateAlert(ctx, &models.Alert{PatientID: p.ID, AlertType: "loud", Title: "x"}), store.ErrConstraintViolation)
	assert.ErrorIs(t, s.CreateAlert(ctx, &models.Alert{PatientID: p.ID, AlertType: models.AlertTypeInfo}), store.ErrConstraintViolation)
	assert.ErrorIs(t, s.CreateAlert(ctx, &models.Alert{PatientID: "missing", AlertType: models.AlertTypeInfo, Title: "x"}), store.ErrNotFound)
}

func TestInterventions(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	p := createPatient(t, s, "MRN-001")
	u, err := s.CreateUser(ctx, newUser("doc"))
	require.NoError(t, err)

	in := &models.Intervention{
		PatientID:        p.ID,
		InterventionType: "medication_adjustment",
		Description:      "Increase furosemide",
		InterventionDate: time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		Outcome:          models.OutcomeOngoing,
		ClinicianID:      &u.ID,
	}
	require.NoError(t, s.CreateIntervention(ctx, in))

	got, err := s.UpdateInterventionOutcome(ctx, in.ID, models.OutcomeSuccessful, strPtr("weight down 2kg"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccessful, got.Outcome)
	assert.Equal(t, "weight down 2kg", got.Notes)
	assert.Equal(t, "Increase furosemide", got.Description)

	_, err = s.UpdateInterventionOutcome(ctx, in.ID, "great", nil)
	assert.ErrorIs(t, err, store.ErrConstraintViolation)

	list, total, err := s.ListInterventions(ctx, p.ID, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, models.OutcomeSuccessful, list[0].Outcome)

	ghost := "no-such-user"
	err = s.CreateIntervention(ctx, &models.Intervention{
		PatientID:        p.ID,
		InterventionType: "consult",
		InterventionDate: time.Now(),
		ClinicianID:      &ghost,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.CreateIntervention(ctx, &models.Intervention{PatientID: p.ID, InterventionType: "consult"})
	assert.ErrorIs(t, err, store.ErrConstraintViolation)
}
