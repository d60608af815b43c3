package services

import (
	"testing"
	"time"

	"github.com/Di-arva/diarva-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTaskSort(t *testing.T) {
	cases := []struct {
		name      string
		sortBy    string
		desc      bool
		wantField string
		wantDir   int
	}{
		{"default field", "", false, "schedule.start_datetime", 1},
		{"unknown field falls back", "secret_field", false, "schedule.start_datetime", 1},
		{"posted_at desc", "posted_at", true, "posted_at", -1},
		{"hourly rate asc", "compensation.hourly_rate", false, "compensation.hourly_rate", 1},
		{"priority", "priority", true, "priority", -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sort := taskSort(c.sortBy, c.desc)
			if len(sort) != 2 {
				t.Fatalf("sort = %v, want field plus _id tiebreak", sort)
			}
			if sort[0].Key != c.wantField || sort[0].Value != c.wantDir {
				t.Errorf("primary sort = %v, want %s:%d", sort[0], c.wantField, c.wantDir)
			}
			if sort[1].Key != "_id" || sort[1].Value != 1 {
				t.Errorf("tiebreak = %v, want _id:1", sort[1])
			}
		})
	}
}

func TestBuildClinicFilterScopesToClinic(t *testing.T) {
	clinicID := primitive.NewObjectID()
	filter := buildClinicFilter(clinicID, TaskFilters{})

	if filter["clinic_id"] != clinicID {
		t.Errorf("clinic_id = %v, want %s", filter["clinic_id"], clinicID.Hex())
	}
	if len(filter) != 1 {
		t.Errorf("empty filters must add nothing beyond the clinic scope, got %v", filter)
	}
}

func TestBuildClinicFilterAllFilters(t *testing.T) {
	clinicID := primitive.NewObjectID()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	filter := buildClinicFilter(clinicID, TaskFilters{
		Statuses:           []models.TaskStatus{models.TaskStatusOpen, models.TaskStatusAssigned},
		Priority:           models.PriorityHigh,
		CertificationLevel: models.CertHARP,
		Specialization:     "Infection Control",
		StartFrom:          &from,
		StartTo:            &to,
	})

	statuses, ok := filter["status"].(bson.M)
	if !ok {
		t.Fatalf("status clause missing: %v", filter)
	}
	in, ok := statuses["$in"].([]models.TaskStatus)
	if !ok || len(in) != 2 {
		t.Errorf("status $in = %v, want two statuses", statuses["$in"])
	}
	if filter["priority"] != models.PriorityHigh {
		t.Errorf("priority = %v, want high", filter["priority"])
	}
	if filter["requirements.certification_level"] != models.CertHARP {
		t.Errorf("certification_level = %v, want HARP", filter["requirements.certification_level"])
	}
	if filter["requirements.required_specializations"] != models.Specialization("Infection Control") {
		t.Errorf("specialization = %v, want Infection Control", filter["requirements.required_specializations"])
	}

	startRange, ok := filter["schedule.start_datetime"].(bson.M)
	if !ok {
		t.Fatalf("start_datetime clause missing: %v", filter)
	}
	if startRange["$gte"] != from || startRange["$lte"] != to {
		t.Errorf("start_datetime range = %v, want [%v, %v]", startRange, from, to)
	}
}

func TestScopedFilter(t *testing.T) {
	taskID := primitive.NewObjectID()
	clinicID := primitive.NewObjectID()

	scoped := scopedFilter(taskID, TaskScope{ClinicID: clinicID})
	if scoped["_id"] != taskID || scoped["clinic_id"] != clinicID {
		t.Errorf("clinic scope filter = %v, want _id and clinic_id", scoped)
	}

	admin := scopedFilter(taskID, TaskScope{IsAdmin: true})
	if admin["_id"] != taskID {
		t.Errorf("admin filter = %v, want _id", admin)
	}
	if _, ok := admin["clinic_id"]; ok {
		t.Error("admin scope must not be limited to a clinic")
	}
}
