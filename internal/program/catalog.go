package program

import (
	"embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml programs/*.yaml
var catalogFS embed.FS

// UserProfile binds a user identity to a training program.
type UserProfile struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	ShortName string `yaml:"shortName"`
	Bio       string `yaml:"bio"`
	ProgramID string `yaml:"program"`
}

type catalogFile struct {
	DefaultUser string        `yaml:"defaultUser"`
	Users       []UserProfile `yaml:"users"`
}

// Catalog is the static registry of users and their programs, loaded once at
// startup from the embedded definitions.
type Catalog struct {
	defaultUser string
	users       []UserProfile
	programs    map[string]*Program
}

// Load parses and validates the embedded catalog. Week-coverage gaps in
// prescriptions are logged as warnings, not errors, because the target engine
// tolerates them (see ComputeTargets).
func Load(log *slog.Logger) (*Catalog, error) {
	data, err := catalogFS.ReadFile("catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if cf.DefaultUser == "" || len(cf.Users) == 0 {
		return nil, fmt.Errorf("catalog must declare users and a defaultUser")
	}

	c := &Catalog{
		defaultUser: cf.DefaultUser,
		users:       cf.Users,
		programs:    make(map[string]*Program, len(cf.Users)),
	}

	for _, u := range cf.Users {
		if _, ok := c.programs[u.ProgramID]; ok {
			continue
		}
		p, err := loadProgram(u.ProgramID)
		if err != nil {
			return nil, err
		}
		if err := validateProgram(p); err != nil {
			return nil, fmt.Errorf("program %q: %w", u.ProgramID, err)
		}
		warnCoverageGaps(p, log)
		c.programs[u.ProgramID] = p
	}

	if _, ok := c.User(cf.DefaultUser); !ok {
		return nil, fmt.Errorf("defaultUser %q is not in the user list", cf.DefaultUser)
	}
	return c, nil
}

func loadProgram(id string) (*Program, error) {
	data, err := catalogFS.ReadFile("programs/" + id + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("reading program %q: %w", id, err)
	}
	var p Program
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing program %q: %w", id, err)
	}
	return &p, nil
}

// DefaultUserID returns the catalog's configured default user.
func (c *Catalog) DefaultUserID() string { return c.defaultUser }

// Users lists all known user profiles.
func (c *Catalog) Users() []UserProfile { return c.users }

// User looks up a profile by id.
func (c *Catalog) User(id string) (UserProfile, bool) {
	for _, u := range c.users {
		if u.ID == id {
			return u, true
		}
	}
	return UserProfile{}, false
}

// ProgramForUser returns the program assigned to a user, falling back to the
// default user's program for unknown ids.
func (c *Catalog) ProgramForUser(userID string) *Program {
	u, ok := c.User(userID)
	if !ok {
		u, _ = c.User(c.defaultUser)
	}
	return c.programs[u.ProgramID]
}

func validateProgram(p *Program) error {
	if p.DurationWeeks < 1 {
		return fmt.Errorf("durationWeeks must be positive")
	}

	sessionIDs := make(map[string]bool, len(p.Sessions))
	exerciseIDs := make(map[string]bool)
	for _, s := range p.Sessions {
		if !s.ID.Valid() {
			return fmt.Errorf("session id %q is not one of A/B/C", s.ID)
		}
		if sessionIDs[string(s.ID)] {
			return fmt.Errorf("duplicate session id %s", s.ID)
		}
		sessionIDs[string(s.ID)] = true

		for _, ex := range s.Exercises {
			if ex.ID == "" {
				return fmt.Errorf("session %s: exercise with empty id", s.ID)
			}
			if exerciseIDs[ex.ID] {
				return fmt.Errorf("duplicate exercise id %q", ex.ID)
			}
			exerciseIDs[ex.ID] = true
			if err := validateExercise(&ex); err != nil {
				return fmt.Errorf("exercise %q: %w", ex.ID, err)
			}
		}
	}

	for _, d := range p.Schedule {
		if _, err := ParseWeekday(d.Day); err != nil {
			return err
		}
		if !sessionIDs[string(d.SessionID)] {
			return fmt.Errorf("schedule references unknown session %s", d.SessionID)
		}
	}

	// Week numbers must be contiguous 1..durationWeeks.
	if len(p.Weeks) != p.DurationWeeks {
		return fmt.Errorf("have %d week entries, want %d", len(p.Weeks), p.DurationWeeks)
	}
	for i, w := range p.Weeks {
		if w.Number != i+1 {
			return fmt.Errorf("week entry %d has number %d", i, w.Number)
		}
	}
	return nil
}

func validateExercise(ex *Exercise) error {
	if len(ex.Prescriptions) == 0 {
		return fmt.Errorf("no prescriptions")
	}
	for _, pr := range ex.Prescriptions {
		if len(pr.WeekRange) != 2 || pr.WeekRange[0] > pr.WeekRange[1] {
			return fmt.Errorf("bad weekRange %v", pr.WeekRange)
		}
		for _, t := range pr.Targets {
			if len(t.RepRange) != 2 || t.RepRange[0] > t.RepRange[1] {
				return fmt.Errorf("bad repRange %v", t.RepRange)
			}
			if len(t.SetRange) > 2 {
				return fmt.Errorf("bad setRange %v", t.SetRange)
			}
		}
	}
	return nil
}

// warnCoverageGaps flags exercises whose prescriptions do not cover every week
// of the program. Such gaps trigger the first-prescription fallback at query
// time, which is usually an authoring mistake.
func warnCoverageGaps(p *Program, log *slog.Logger) {
	if log == nil {
		return
	}
	for _, s := range p.Sessions {
		for _, ex := range s.Exercises {
			var gaps []int
			for week := 1; week <= p.DurationWeeks; week++ {
				covered := false
				for _, pr := range ex.Prescriptions {
					if len(pr.WeekRange) == 2 && week >= pr.WeekRange[0] && week <= pr.WeekRange[1] {
						covered = true
						break
					}
				}
				if !covered {
					gaps = append(gaps, week)
				}
			}
			if len(gaps) > 0 {
				log.Warn("prescription week coverage gap",
					"program", p.Name, "exercise", ex.ID, "weeks", gaps)
			}
		}
	}
}
