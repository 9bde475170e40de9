package jdk

import (
	"sort"
	"time"
)

// Release is a known GA update of a feature line.
type Release struct {
	Version Version
	GA      time.Time
}

// releases holds quarterly GA dates per LTS feature line, oldest first.
var releases = map[int][]Release{
	8: {
		r8(181, "2018-07-17"), r8(191, "2018-10-16"), r8(201, "2019-01-15"),
		r8(212, "2019-04-16"), r8(222, "2019-07-16"), r8(232, "2019-10-15"),
		r8(242, "2020-01-14"), r8(252, "2020-04-14"), r8(262, "2020-07-14"),
		r8(272, "2020-10-20"), r8(282, "2021-01-19"), r8(292, "2021-04-20"),
		r8(302, "2021-07-20"), r8(312, "2021-10-19"), r8(322, "2022-01-18"),
		r8(332, "2022-04-19"), r8(342, "2022-07-19"), r8(352, "2022-10-18"),
		r8(362, "2023-01-17"), r8(372, "2023-04-18"), r8(382, "2023-07-18"),
		r8(392, "2023-10-17"), r8(402, "2024-01-16"),
	},
	11: {
		rel("11", "2018-09-25"), rel("11.0.1", "2018-10-16"), rel("11.0.2", "2019-01-15"),
		rel("11.0.3", "2019-04-16"), rel("11.0.4", "2019-07-16"), rel("11.0.5", "2019-10-15"),
		rel("11.0.6", "2020-01-14"), rel("11.0.7", "2020-04-14"), rel("11.0.8", "2020-07-14"),
		rel("11.0.9", "2020-10-20"), rel("11.0.10", "2021-01-19"), rel("11.0.11", "2021-04-20"),
		rel("11.0.12", "2021-07-20"), rel("11.0.13", "2021-10-19"), rel("11.0.14", "2022-01-18"),
		rel("11.0.15", "2022-04-19"), rel("11.0.16", "2022-07-19"), rel("11.0.17", "2022-10-18"),
		rel("11.0.18", "2023-01-17"), rel("11.0.19", "2023-04-18"), rel("11.0.20", "2023-07-18"),
		rel("11.0.21", "2023-10-17"), rel("11.0.22", "2024-01-16"),
	},
	17: {
		rel("17", "2021-09-14"), rel("17.0.1", "2021-10-19"), rel("17.0.2", "2022-01-18"),
		rel("17.0.3", "2022-04-19"), rel("17.0.4", "2022-07-19"), rel("17.0.5", "2022-10-18"),
		rel("17.0.6", "2023-01-17"), rel("17.0.7", "2023-04-18"), rel("17.0.8", "2023-07-18"),
		rel("17.0.9", "2023-10-17"), rel("17.0.10", "2024-01-16"),
	},
	21: {
		rel("21", "2023-09-19"), rel("21.0.1", "2023-10-17"), rel("21.0.2", "2024-01-16"),
	},
}

func r8(update int, ga string) Release {
	return Release{Version: Version{Feature: 8, Update: update}, GA: mustDate(ga)}
}

func rel(v, ga string) Release {
	return Release{Version: MustParse(v), GA: mustDate(ga)}
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// Latest returns the newest known release of the given feature line.
func Latest(feature int) (Release, bool) {
	rs := releases[feature]
	if len(rs) == 0 {
		return Release{}, false
	}
	return rs[len(rs)-1], true
}

// EstimateBuildDate returns the GA date of the newest known release that is
// not newer than v. Builds are cut shortly before GA, so the date is an
// estimate, never exact.
func EstimateBuildDate(v Version) (time.Time, bool) {
	rs := releases[v.Feature]
	i := sort.Search(len(rs), func(i int) bool {
		return v.Before(rs[i].Version)
	})
	if i == 0 {
		return time.Time{}, false
	}
	return rs[i-1].GA, true
}
