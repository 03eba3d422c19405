package entity

// Job is one employment entry, most recent first.
type Job struct {
	Institution string
	Title       string
}

// School is one education entry, most recent first.
type School struct {
	Institution string
	Degree      string
}

// User is an OSF account as loaded from the store.
type User struct {
	ID           string
	Fullname     string
	GivenName    string
	MiddleNames  string
	FamilyName   string
	Suffix       string
	Username     string
	IsActive     bool
	IsRegistered bool
	Jobs         []Job
	Schools      []School
	Social       map[string]string
	NodeIDs      []string
}

// ProfileURL returns the site-relative profile link.
func (u *User) ProfileURL() string { return "/" + u.ID + "/" }

// CurrentJob returns the most recent employment, if any.
func (u *User) CurrentJob() (Job, bool) {
	if len(u.Jobs) == 0 {
		return Job{}, false
	}
	return u.Jobs[0], true
}

// CurrentSchool returns the most recent education entry, if any.
func (u *User) CurrentSchool() (School, bool) {
	if len(u.Schools) == 0 {
		return School{}, false
	}
	return u.Schools[0], true
}

// NProjectsInCommon counts the nodes both users contribute to.
func (u *User) NProjectsInCommon(other *User) int {
	if other == nil {
		return 0
	}
	mine := make(map[string]struct{}, len(u.NodeIDs))
	for _, id := range u.NodeIDs {
		mine[id] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(other.NodeIDs))
	for _, id := range other.NodeIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := mine[id]; ok {
			n++
		}
	}
	return n
}
