// Package domain models weekly dengue surveillance features.
//
// # Temporal grain
//
// Every series in this package is indexed by epidemiological week: the
// ISO-8601 week number paired with the ISO week-year ([EWeek]). Daily
// source data (station temperature readings, rainfall, Niño 3.4 bulletins)
// is aggregated to this grain upstream; the functions here never see
// anything finer than one value per week. Weeks with no source data are
// simply absent — no gap-filling is performed.
//
// # Serotype data conventions
//
// Dengue serotypes are reported as strain labels "D1".."D4" with a weekly
// sample count per strain. The dominant strain for a week is the strain (or
// strains, when counts tie exactly) with the maximum count. Ties are broken
// with a continuity bias: if last week had a single dominant strain and it
// is among this week's tied maximum, it stays dominant. This avoids
// spurious switch events caused by sampling noise in tie weeks.
//
// # Switch events and the days-since-switch feature
//
// A switch event is a week whose resolved dominant strain set differs, as a
// set, from the previous week's. The days_since_switch feature counts 7 per
// elapsed week since the most recent switch, resetting to 0 on the switch
// week itself. The very first observation is always a switch (there is no
// history), so a series always starts at 0. Serotype switches are a known
// driver of dengue outbreaks: population immunity lags the newly dominant
// strain, so the time elapsed since the last switch is a strong predictor.
//
// # Rolling climate features
//
// Climate features share one transform: an optional mean-centering against
// the all-time series mean, a trailing aggregate (mean or sum) over the
// last W weeks including the current one, and a backward lag of L weeks
// with zero-fill for the first L outputs. Windows at the start of a series
// are partial, never zero-padded. Feature columns are named after their
// parameters, e.g. max_t_scale_12_wk_avg_0 or days_no_rain_12_wk_total_0,
// so datasets built with different windows can coexist in one warehouse.
package domain
