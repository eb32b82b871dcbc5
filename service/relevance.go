package service

import (
	"strings"

	"github.com/qitt/qitt-backend/models"
)

const popularityThreshold = 50

// RelevanceScore ranks an already-filtered material against a lower-cased,
// trimmed query. The bonuses are additive; per field only the strongest tier
// counts. Higher is more relevant; ties keep fetch order.
func RelevanceScore(m *models.Material, query string) int {
	score := 0

	code := strings.ToLower(m.CourseCode)
	if code == query {
		score += 100
	} else if strings.Contains(code, query) {
		score += 50
	}

	tagExact := false
	tagContains := false
	for _, tag := range m.Tags {
		lt := strings.ToLower(tag)
		if lt == query {
			tagExact = true
			break
		}
		if strings.Contains(lt, query) {
			tagContains = true
		}
	}
	if tagExact {
		score += 30
	} else if tagContains {
		score += 15
	}

	if strings.Contains(strings.ToLower(m.Description), query) {
		score += 10
	}

	if strings.Contains(strings.ToLower(m.Type), query) {
		score += 5
	}
	if strings.Contains(strings.ToLower(m.Department), query) {
		score += 5
	}

	if m.Likes > popularityThreshold {
		score += 5
	}

	return score
}
