package attendance

import (
	"reflect"
	"testing"
)

func TestUniqueAttendees(t *testing.T) {
	t.Parallel()

	t.Run("one entry per user id", func(t *testing.T) {
		t.Parallel()
		records := []Record{
			{UserID: "a", UserName: "가", Date: "d1"},
			{UserID: "a", UserName: "가", Date: "d2"},
		}
		got := UniqueAttendees(records, nil)
		if len(got) != 1 || got[0].UserID != "a" || got[0].Days != 2 {
			t.Fatalf("unexpected attendees %+v", got)
		}
	})

	t.Run("first occurrence names the attendee", func(t *testing.T) {
		t.Parallel()
		records := []Record{
			{UserID: "u1", UserName: "홍길동", Date: "2024-03-01"},
			{UserID: "u1", UserName: "renamed", Date: "2024-03-02"},
		}
		got := UniqueAttendees(records, nil)
		if got[0].UserName != "홍길동" {
			t.Fatalf("expected first name to win, got %q", got[0].UserName)
		}
	})

	t.Run("sorted with korean collation", func(t *testing.T) {
		t.Parallel()
		records := []Record{
			{UserID: "3", UserName: "다람쥐"},
			{UserID: "2", UserName: "나비"},
			{UserID: "1", UserName: "가방"},
			{UserID: "4", UserName: "나비"},
		}
		got := UniqueAttendees(records, KoreanSorter())
		var ids []string
		for _, a := range got {
			ids = append(ids, a.UserID)
		}
		if want := []string{"1", "2", "4", "3"}; !reflect.DeepEqual(ids, want) {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		t.Parallel()
		records := []Record{{UserID: "b", UserName: "나"}, {UserID: "a", UserName: "가"}}
		_ = UniqueAttendees(records, nil)
		if records[0].UserID != "b" {
			t.Fatal("input slice was reordered")
		}
	})
}

func TestKoreanSorterOrdersHangul(t *testing.T) {
	t.Parallel()

	sorter := KoreanSorter()
	if sorter.Compare("가", "나") >= 0 {
		t.Fatal("expected 가 < 나")
	}
	attendees := UniqueAttendees([]Record{
		{UserID: "4", UserName: "하"},
		{UserID: "1", UserName: "가"},
		{UserID: "3", UserName: "마"},
		{UserID: "2", UserName: "나"},
	}, sorter)
	names := make([]string, 0, len(attendees))
	for _, a := range attendees {
		names = append(names, a.UserName)
	}
	if want := []string{"가", "나", "마", "하"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestGrouping(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Date: "2024-03-01", UserID: "a"},
		{Date: "2024-03-01", UserID: "b"},
		{Date: "2024-03-02", UserID: "a"},
	}
	byDate := GroupByDate(records)
	if len(byDate["2024-03-01"]) != 2 || byDate["2024-03-01"][1].UserID != "b" {
		t.Fatalf("unexpected by-date grouping %+v", byDate)
	}
	byUser := GroupByUser(records)
	if len(byUser["a"]) != 2 || len(byUser["b"]) != 1 {
		t.Fatalf("unexpected by-user grouping %+v", byUser)
	}
}

func TestDedupeKeepsLastPerDateAndUser(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Date: "d1", UserID: "a", Role: "DOOR"},
		{Date: "d1", UserID: "b"},
		{Date: "d1", UserID: "a", Role: "OPER"},
	}
	got := Dedupe(records)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].UserID != "a" || got[0].Role != "OPER" {
		t.Fatalf("expected last record for a in first position, got %+v", got[0])
	}
}

func TestVisibleTo(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Date: "d1", UserID: "me", Confirmed: "N"},
		{Date: "d1", UserID: "other", Confirmed: "N"},
		{Date: "d2", UserID: "other", Confirmed: "Y"},
	}
	if got := VisibleTo(records, "me", false); len(got) != 2 {
		t.Fatalf("expected own + confirmed records, got %+v", got)
	}
	if got := VisibleTo(records, "me", true); len(got) != 3 {
		t.Fatalf("admins see all records, got %d", len(got))
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []Record{
		{UserID: "a", OpenHope: true, Confirmed: "Y"},
		{UserID: "a"},
		{UserID: "b"},
	}
	s := Summarize(records, 30)
	if s.UniqueUsers != 2 || s.TotalSelections != 3 || s.OpenHopeCount != 1 || s.ConfirmedCount != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.AveragePerDay != 0.1 {
		t.Fatalf("expected 0.1 average, got %v", s.AveragePerDay)
	}
	if empty := Summarize(nil, 30); empty.AveragePerDay != 0 {
		t.Fatalf("expected 0 average for empty month, got %v", empty.AveragePerDay)
	}
}
