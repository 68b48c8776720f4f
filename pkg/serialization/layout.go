package serialization

import "github.com/jPabloBC/ingenit-flows/pkg/domain"

// Rows of the fallback layout for flows stored before positions were tracked.
var rowY = map[domain.NodeKind]float64{
	domain.KindStart:         50,
	domain.KindMenu:          200,
	domain.KindSystemMessage: 350,
	domain.KindClientMessage: 450,
	domain.KindDecision:      550,
	domain.KindDelay:         650,
	domain.KindEnd:           800,
}

// DefaultPosition returns the fallback position of the i-th node of a kind.
func DefaultPosition(kind domain.NodeKind, i int) domain.Position {
	if kind == domain.KindStart {
		return domain.Position{X: 250, Y: rowY[kind]}
	}
	return domain.Position{X: 100 + float64(i)*250, Y: rowY[kind]}
}
