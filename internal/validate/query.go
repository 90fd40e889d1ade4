package validate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// MovieQuery holds the GET /movies query string.
type MovieQuery struct {
	Page      int      `json:"page" validate:"min=1"`
	Limit     int      `json:"limit" validate:"min=1,max=100"`
	Genre     string   `json:"genre" validate:"omitempty,max=100"`
	MinRating *float64 `json:"minRating" validate:"omitnil,min=0,max=10"`
	Year      *int     `json:"year" validate:"omitnil,min=1900,maxyear"`
	Q         string   `json:"q" validate:"omitempty,max=200"`
	SortBy    string   `json:"sortBy" validate:"omitempty,max=50"`
	Order     string   `json:"order" validate:"oneof=asc desc"`
}

// SearchQuery holds the GET /movies/search query string.
type SearchQuery struct {
	Q       string `json:"q" validate:"omitempty,max=200"`
	MinYear int    `json:"minYear" validate:"min=1900,maxyear"`
	MaxYear int    `json:"maxYear" validate:"min=1900,maxyear,gtefield=MinYear"`
	Genres  []int  `json:"genres" validate:"omitempty,dive,min=1,max=2147483647"`
	SortBy  string `json:"sortBy" validate:"omitempty,max=50"`
	Page    int    `json:"page" validate:"min=1"`
	Limit   int    `json:"limit" validate:"min=1,max=100"`
}

// MovieQuery parses and validates the movie listing query string.
func (v *Validator) MovieQuery(values url.Values) (MovieQuery, error) {
	q := MovieQuery{
		Page:   defaultPage,
		Limit:  defaultLimit,
		Genre:  strings.TrimSpace(values.Get("genre")),
		Q:      strings.TrimSpace(values.Get("q")),
		SortBy: strings.TrimSpace(values.Get("sortBy")),
		Order:  "asc",
	}
	var err error
	if q.Page, err = intParam(values, "page", q.Page); err != nil {
		return MovieQuery{}, err
	}
	if q.Limit, err = intParam(values, "limit", q.Limit); err != nil {
		return MovieQuery{}, err
	}
	if raw := strings.TrimSpace(values.Get("minRating")); raw != "" {
		f, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			return MovieQuery{}, &Error{Field: "minRating", Message: "minRating must be a number"}
		}
		q.MinRating = &f
	}
	if raw := strings.TrimSpace(values.Get("year")); raw != "" {
		y, perr := strconv.Atoi(raw)
		if perr != nil {
			return MovieQuery{}, &Error{Field: "year", Message: "year must be an integer"}
		}
		q.Year = &y
	}
	if raw := strings.TrimSpace(values.Get("order")); raw != "" {
		q.Order = strings.ToLower(raw)
	}
	if err := v.Struct(q); err != nil {
		return MovieQuery{}, err
	}
	return q, nil
}

// SearchQuery parses and validates the search query string. Both q and
// query name the search term.
func (v *Validator) SearchQuery(values url.Values) (SearchQuery, error) {
	q := SearchQuery{
		Q:       strings.TrimSpace(values.Get("q")),
		MinYear: MinYear,
		MaxYear: v.CurrentYear(),
		SortBy:  strings.TrimSpace(values.Get("sortBy")),
		Page:    defaultPage,
		Limit:   defaultLimit,
	}
	if q.Q == "" {
		q.Q = strings.TrimSpace(values.Get("query"))
	}
	var err error
	if q.MinYear, err = intParam(values, "minYear", q.MinYear); err != nil {
		return SearchQuery{}, err
	}
	if q.MaxYear, err = intParam(values, "maxYear", q.MaxYear); err != nil {
		return SearchQuery{}, err
	}
	if q.Page, err = intParam(values, "page", q.Page); err != nil {
		return SearchQuery{}, err
	}
	if q.Limit, err = intParam(values, "limit", q.Limit); err != nil {
		return SearchQuery{}, err
	}
	if raw := strings.TrimSpace(values.Get("genres")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, perr := strconv.Atoi(part)
			if perr != nil {
				return SearchQuery{}, &Error{Field: "genres", Message: "genres must be a comma-separated list of ids"}
			}
			q.Genres = append(q.Genres, id)
		}
	}
	if err := v.Struct(q); err != nil {
		return SearchQuery{}, err
	}
	return q, nil
}

func intParam(values url.Values, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Field: name, Message: fmt.Sprintf("%s must be an integer", name)}
	}
	return n, nil
}
