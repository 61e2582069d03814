package notifier

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"MarketPulse/internal/model"
)

// FormatWeeklyReport renders the weekly MACD table and any signals of one
// symbol.
func FormatWeeklyReport(a *model.Analysis) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔔 **%s(%s) 주간 MACD 분석 결과**\n\n", a.Name, a.Code))

	b.WriteString(fmt.Sprintf("📊 **최근 %d주 요약**\n```\n", len(a.Weekly)))
	b.WriteString("날짜          종가      전주비    MACD\n")
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for _, r := range a.Weekly {
		b.WriteString(fmt.Sprintf("%s  %8s  %8s  %+6.2f\n",
			r.Date.Format("2006-01-02"), humanize.Comma(r.Close), signedComma(r.Diff), r.MACDHist))
	}
	b.WriteString("```\n")

	if len(a.Signals) == 0 {
		b.WriteString("\n💡 현재 매매 시그널 없음\n")
		return b.String()
	}
	for _, s := range a.Signals {
		if s.Kind == model.SignalBuy {
			b.WriteString("\n🔵 **매수 시그널 발생!**\n")
		} else {
			b.WriteString("\n🔴 **매도 시그널 발생!**\n")
		}
		b.WriteString(fmt.Sprintf("📅 날짜: %s\n", s.Date.Format("2006-01-02")))
		b.WriteString(fmt.Sprintf("💰 가격: %s원\n", humanize.Comma(s.Price)))
		b.WriteString(fmt.Sprintf("📊 %s\n", s.Reason))
	}
	return b.String()
}

func signedComma(v int64) string {
	if v >= 0 {
		return "+" + humanize.Comma(v)
	}
	return humanize.Comma(v)
}

// FormatError renders a per-symbol failure.
func FormatError(name string, err error) string {
	return fmt.Sprintf("⚠️ **오류 발생**\n%s 분석 중 오류 발생: %v", name, err)
}

// RunSummary is the outcome of one stock job run.
type RunSummary struct {
	Analyzed    []string
	Failed      []string
	WithSignals []string
}

// FormatRunSummary renders the end-of-run summary.
func FormatRunSummary(s RunSummary) string {
	var b strings.Builder
	b.WriteString("📊 **전체 분석 결과 요약**\n\n")
	b.WriteString(fmt.Sprintf("✅ 분석 완료: %d개 종목\n", len(s.Analyzed)))
	if len(s.Failed) > 0 {
		b.WriteString(fmt.Sprintf("❌ 분석 실패: %d개 종목 (%s)\n", len(s.Failed), strings.Join(s.Failed, ", ")))
	}
	if len(s.WithSignals) > 0 {
		b.WriteString(fmt.Sprintf("\n🔔 매매 시그널 발생 종목: %s", strings.Join(s.WithSignals, ", ")))
	} else {
		b.WriteString("\n💡 매매 시그널이 발생한 종목이 없습니다.")
	}
	return b.String()
}

// FormatVolumeSummary renders city and national apartment trade counts.
func FormatVolumeSummary(s *model.VolumeSummary) string {
	var b strings.Builder
	month := s.YearMonth
	if len(month) == 6 {
		month = month[:4] + "년 " + month[4:] + "월"
	}
	b.WriteString(fmt.Sprintf("🏠 **%s 아파트 매매 거래량**\n\n```\n", month))
	for _, c := range s.Cities {
		b.WriteString(fmt.Sprintf("%-6s %8s건\n", c.City, humanize.Comma(int64(c.Count))))
	}
	b.WriteString("```\n")
	b.WriteString(fmt.Sprintf("전국 합계: %s건\n", humanize.Comma(int64(s.National))))
	if len(s.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("⚠️ 수집 실패: %s\n", strings.Join(s.Skipped, ", ")))
	}
	return b.String()
}
