package models

import (
	"fmt"
	"time"
)

// GameDateLayout is the wire layout of GameRecord.Date.
const GameDateLayout = "2006-01-02"

// AtBatResult is the outcome of one plate appearance. Values are the labels
// the mobile client submits.
type AtBatResult string

const (
	ResultSingle              AtBatResult = "単打"
	ResultDouble              AtBatResult = "二塁打"
	ResultTriple              AtBatResult = "三塁打"
	ResultHomeRun             AtBatResult = "本塁打"
	ResultWalk                AtBatResult = "四球"
	ResultHitByPitch          AtBatResult = "死球"
	ResultSwingingStrikeout   AtBatResult = "空振り三振"
	ResultLookingStrikeout    AtBatResult = "見逃し三振"
	ResultDroppedThirdStrike  AtBatResult = "振り逃げ"
	ResultGroundOut           AtBatResult = "ゴロ"
	ResultFlyOut              AtBatResult = "フライ"
	ResultLineOut             AtBatResult = "ライナー"
	ResultFoulFlyOut          AtBatResult = "ファウルフライ"
	ResultDoublePlay          AtBatResult = "併殺"
	ResultSacrificeFly        AtBatResult = "犠飛"
	ResultBunt                AtBatResult = "犠打"
	ResultReachedOnError      AtBatResult = "失策"
	ResultFieldersChoice      AtBatResult = "野選"
	ResultCatcherInterference AtBatResult = "打撃妨害"
	ResultBatterInterference  AtBatResult = "守備妨害"
)

// AllResults lists every recognised at-bat result.
var AllResults = []AtBatResult{
	ResultSingle, ResultDouble, ResultTriple, ResultHomeRun,
	ResultWalk, ResultHitByPitch,
	ResultSwingingStrikeout, ResultLookingStrikeout, ResultDroppedThirdStrike,
	ResultGroundOut, ResultFlyOut, ResultLineOut, ResultFoulFlyOut, ResultDoublePlay,
	ResultSacrificeFly, ResultBunt,
	ResultReachedOnError, ResultFieldersChoice,
	ResultCatcherInterference, ResultBatterInterference,
}

var knownResults = func() map[AtBatResult]struct{} {
	m := make(map[AtBatResult]struct{}, len(AllResults))
	for _, r := range AllResults {
		m[r] = struct{}{}
	}
	return m
}()

// Known reports whether r is a recognised result.
func (r AtBatResult) Known() bool {
	_, ok := knownResults[r]
	return ok
}

// IsHit reports whether r is a base hit.
func (r AtBatResult) IsHit() bool {
	switch r {
	case ResultSingle, ResultDouble, ResultTriple, ResultHomeRun:
		return true
	}
	return false
}

// BuntDetail refines a ResultBunt at-bat.
type BuntDetail string

const (
	BuntSacrifice        BuntDetail = "犠打成功"
	BuntSacrificeFailed  BuntDetail = "犠打失敗"
	BuntSqueeze          BuntDetail = "スクイズ成功"
	BuntSqueezeFailed    BuntDetail = "スクイズ失敗"
	BuntHit              BuntDetail = "バントヒット"
	BuntThreeBuntSuccess BuntDetail = "スリーバント成功"
	BuntThreeBuntFailed  BuntDetail = "スリーバント失敗"
)

// Position is a fielding direction.
type Position string

const (
	PositionPitcher     Position = "投"
	PositionCatcher     Position = "捕"
	PositionFirst       Position = "一"
	PositionSecond      Position = "二"
	PositionThird       Position = "三"
	PositionShortstop   Position = "遊"
	PositionLeft        Position = "左"
	PositionCenter      Position = "中"
	PositionRight       Position = "右"
	PositionLeftCenter  Position = "左中"
	PositionRightCenter Position = "右中"
)

// GameType classifies a game.
type GameType string

const (
	GameTypeOfficial GameType = "official"
	GameTypePractice GameType = "practice"
	GameTypeUnknown  GameType = "unknown"
)

// GameTypes lists every game type a category can be scoped to.
var GameTypes = []GameType{GameTypeOfficial, GameTypePractice, GameTypeUnknown}

// ParseGameType maps client input to a GameType. Anything unrecognised is unknown.
func ParseGameType(s string) GameType {
	switch s {
	case "official", "公式戦":
		return GameTypeOfficial
	case "practice", "練習試合":
		return GameTypePractice
	default:
		return GameTypeUnknown
	}
}

// PitchingAppearance is how a pitcher entered the game.
type PitchingAppearance string

const (
	AppearanceStarter  PitchingAppearance = "先発"
	AppearanceReliever PitchingAppearance = "中継ぎ"
	AppearanceCloser   PitchingAppearance = "抑え"
)

// PitchingDecision is the pitcher of record outcome.
type PitchingDecision string

const (
	DecisionWin  PitchingDecision = "勝利"
	DecisionLoss PitchingDecision = "敗戦"
	DecisionHold PitchingDecision = "ホールド"
	DecisionSave PitchingDecision = "セーブ"
)

// AtBatEvent is one plate appearance.
type AtBatEvent struct {
	Result           AtBatResult `json:"result"`
	Position         Position    `json:"position,omitempty"`
	BuntDetail       BuntDetail  `json:"buntDetail,omitempty"`
	SwingCount       int         `json:"swingCount" validate:"gte=0"`
	MissSwingCount   int         `json:"missSwingCount" validate:"gte=0"`
	BatterPitchCount int         `json:"batterPitchCount" validate:"gte=0"`
	FirstPitchSwing  bool        `json:"firstPitchSwing"`
}

// PitchingRecord holds one pitching appearance.
type PitchingRecord struct {
	Appearance      PitchingAppearance `json:"appearance"`
	Decision        PitchingDecision   `json:"decision,omitempty"`
	InningsPitched  float64            `json:"inningsPitched" validate:"gte=0"` // baseball notation: 5.2 is five and two-thirds
	EarnedRuns      int                `json:"earnedRuns" validate:"gte=0"`
	RunsAllowed     int                `json:"runsAllowed" validate:"gte=0"`
	Strikeouts      int                `json:"strikeouts" validate:"gte=0"`
	Walks           int                `json:"walks" validate:"gte=0"`
	HitByPitch      int                `json:"hitByPitch" validate:"gte=0"`
	HitsAllowed     int                `json:"hitsAllowed" validate:"gte=0"`
	HomeRunsAllowed int                `json:"homeRunsAllowed" validate:"gte=0"`
	BattersFaced    int                `json:"battersFaced" validate:"gte=0"`
	PitchCount      int                `json:"pitchCount" validate:"gte=0"`
	CompleteGame    bool               `json:"completeGame"`
}

// Outs converts InningsPitched to recorded outs.
func (p *PitchingRecord) Outs() int {
	if p == nil || p.InningsPitched <= 0 {
		return 0
	}
	whole := int(p.InningsPitched)
	frac := int((p.InningsPitched-float64(whole))*10 + 0.5)
	if frac > 2 {
		frac = 2
	}
	return whole*3 + frac
}

// FieldingRecord holds one game's defensive line.
type FieldingRecord struct {
	Putouts int `json:"putouts" validate:"gte=0"`
	Assists int `json:"assists" validate:"gte=0"`
	Errors  int `json:"errors" validate:"gte=0"`

	// Catcher only.
	StolenBasesAllowed int `json:"stolenBasesAllowed" validate:"gte=0"`
	CaughtStealing     int `json:"caughtStealing" validate:"gte=0"`
}

// GameRecord is one appearance by a subject in one game. It is append-only.
type GameRecord struct {
	ID       string   `json:"gameId"`
	Subject  Subject  `json:"subject"`
	Date     string   `json:"date" validate:"required,datetime=2006-01-02"`
	GameType GameType `json:"gameType"`
	Location string   `json:"location,omitempty"`
	Opponent string   `json:"opponent,omitempty"`

	AtBats []AtBatEvent `json:"atBats" validate:"dive"`

	StolenBases    int `json:"stolenBases" validate:"gte=0"`
	CaughtStealing int `json:"caughtStealing" validate:"gte=0"`
	RBIs           int `json:"rbis" validate:"gte=0"`
	Runs           int `json:"runs" validate:"gte=0"`

	Pitching *PitchingRecord `json:"pitching,omitempty"`
	Fielding *FieldingRecord `json:"fielding,omitempty"`
}

// PlayedOn parses Date.
func (g *GameRecord) PlayedOn() (time.Time, error) {
	t, err := time.Parse(GameDateLayout, g.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse game date %q: %w", g.Date, err)
	}
	return t, nil
}

// GameRecordCreated is the event fired when a user submits a finished game.
type GameRecordCreated struct {
	Subject Subject     `json:"subject"`
	GameID  string      `json:"gameId"`
	Record  *GameRecord `json:"record"`
}
