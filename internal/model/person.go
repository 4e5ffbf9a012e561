package model

// Teacher 教师（指导老师）表 — 对应 teachers
type Teacher struct {
	TeacherID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	FirstName    string `gorm:"type:varchar(50);not null"                      json:"first_name"`
	LastName     string `gorm:"type:varchar(50);not null"                      json:"last_name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Department   string `gorm:"type:varchar(100)"                              json:"department"`
	Position     string `gorm:"type:varchar(100)"                              json:"position"`
	Office       string `gorm:"type:varchar(50)"                               json:"office"`
	SoftDeleteModel
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// FullName 展示用姓名
func (t *Teacher) FullName() string { return joinName(t.FirstName, t.LastName) }

// Student 学生表 — 对应 students
type Student struct {
	StudentID    string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	FirstName    string   `gorm:"type:varchar(50);not null"                      json:"first_name"`
	LastName     string   `gorm:"type:varchar(50);not null"                      json:"last_name"`
	Email        string   `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string   `gorm:"type:varchar(255);not null"                     json:"-"`
	Section      string   `gorm:"type:varchar(50)"                               json:"section"`
	Group        string   `gorm:"column:group_name;type:varchar(50)"             json:"group"`
	Average      *float64 `gorm:"type:numeric(5,2)"                              json:"average,omitempty"` // 可为空：未录入成绩
	MeritRank    *int     `gorm:"column:merit_rank"                              json:"merit_rank,omitempty"`
	SupervisorID *string  `gorm:"type:uuid"                                      json:"supervisor_id,omitempty"`
	SoftDeleteModel

	// 关联
	Supervisor *Teacher `gorm:"foreignKey:SupervisorID;references:TeacherID" json:"supervisor,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// FullName 展示用姓名
func (s *Student) FullName() string { return joinName(s.FirstName, s.LastName) }

// Administrator 管理员表 — 对应 administrators
type Administrator struct {
	AdminID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"admin_id"`
	FirstName    string `gorm:"type:varchar(50);not null"                      json:"first_name"`
	LastName     string `gorm:"type:varchar(50);not null"                      json:"last_name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	SoftDeleteModel
}

// TableName 指定表名
func (Administrator) TableName() string { return "administrators" }

// FullName 展示用姓名
func (a *Administrator) FullName() string { return joinName(a.FirstName, a.LastName) }

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
