package report

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workflow statuses. Stored and served as the Thai strings the deployed
// clients render directly.
const (
	StatusPending    = "รอดำเนินการ"
	StatusInProgress = "กำลังดำเนินการ"
	StatusCompleted  = "เสร็จสิ้น"
)

var Buildings = []string{"UB", "CE", "ICT", "PKY"}

var Categories = []string{
	"ไมค์โครโฟน",
	"อินเตอร์เน็ต",
	"โปรเจคเตอร์",
	"จอแสดงภาพ",
	"ลำโพง",
	"เครื่องปรับอากาศ",
	"อื่นๆ",
}

func ValidStatus(status string) bool {
	return status == StatusPending || status == StatusInProgress || status == StatusCompleted
}

func ValidBuilding(building string) bool {
	return contains(Buildings, building)
}

func ValidCategory(category string) bool {
	return contains(Categories, category)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// Report is a single facility-damage record. Field names keep the wire
// format of the deployed clients (camelCase, _id).
type Report struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	Building   string             `bson:"building" json:"building"`
	RoomNumber string             `bson:"roomNumber" json:"roomNumber"`
	Category   string             `bson:"category" json:"category"`
	Details    string             `bson:"details" json:"details"`
	ReportDate time.Time          `bson:"reportDate" json:"reportDate"`
	ImagePath  string             `bson:"imagePath,omitempty" json:"imagePath,omitempty"`
	Status     string             `bson:"status" json:"status"`
	Note       string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedBy  primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	Version    int64              `bson:"version" json:"version"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ListQuery narrows and pages the report list server-side. Zero values mean
// no filtering; Limit == 0 returns everything.
type ListQuery struct {
	Building string
	Category string
	Status   string
	OwnerID  string // partition to one creator's reports
	Page     int64
	Limit    int64
}

// Counts backs the dashboard statistics widget.
type Counts struct {
	TotalReports int64 `json:"totalReports"`
	Pending      int64 `json:"pending"`
	InProgress   int64 `json:"inProgress"`
	Completed    int64 `json:"completed"`
}
