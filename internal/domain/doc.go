// Package domain models the regional school safety index shown on the
// dashboard.
//
// # Regions
//
// The country is split into 17 first-level divisions (provinces, metropolitan
// and special cities). Each [Region] carries a safety index on a 0–100 scale,
// the letter grade of that index and the number of schools it covers. Codes
// are lowercase romanizations such as "seoul" or "gyeongbuk".
//
// # Grades
//
//	S ≥ 90 | A 80–89 | B 60–79 | C 40–59 | D < 40
//
// A grade is always derived from the index. Datasets and updates may state it
// explicitly, in which case it must agree with the index. See [GradeFor].
//
// # Data flow
//
// The dashboard starts from a YAML [Dataset] (an embedded snapshot unless a
// file is configured). Newer figures arrive as JSON [RegionUpdate] messages on
// Kafka:
//
//	{"code": "seoul", "index": 84, "schools": 1240, "as_of": "2024.10"}
//
// The "as_of" token is the year and month the figures were published, written
// YYYY.MM as on the dashboard.
package domain
