package service

import "math"

// roundHalfUp 四舍五入到整数（.5 向上）
// 先截到 1e-9 精度，避免 35.5 被浮点误差算成 35.4999...
func roundHalfUp(x float64) float64 {
	return math.Floor(roundTo(x, 9) + 0.5)
}

// roundTo 保留 places 位小数
func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// percent 计算 part/whole*100，whole 为 0 时返回 0
func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
