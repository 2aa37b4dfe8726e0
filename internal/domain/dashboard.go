package domain

import "sort"

// DashboardSet is a strength set with its attributed muscle groups.
type DashboardSet struct {
	StrengthSet
	MuscleGroups []string
}

// DashboardWorkout is a workout shaped for the day view.
type DashboardWorkout struct {
	Workout
	StrengthSets  []DashboardSet
	CardioSession *CardioSession
}

// ExerciseMaxWeight is the heaviest weight recorded for an exercise name.
type ExerciseMaxWeight struct {
	ExerciseName string
	MaxWeight    float64
}

// MuscleGroupLoad is the summed set load attributed to a muscle group.
type MuscleGroupLoad struct {
	MuscleGroup string
	Load        float64
}

// CardioTotals sums cardio sessions. TotalDurationSeconds is nil unless a session reported one.
type CardioTotals struct {
	TotalDistanceMiles   float64
	TotalDurationSeconds *int
}

// DayTelemetry is the rolled-up training load for a day.
type DayTelemetry struct {
	TotalTrainingLoad       float64
	BestSetLoad             *float64
	BestSetExerciseName     *string
	MaxWeightPerExercise    []ExerciseMaxWeight
	MuscleGroupTrainingLoad []MuscleGroupLoad
	CardioTotals            CardioTotals
}

// DayDashboard merges the day's workouts with their telemetry.
type DayDashboard struct {
	Workouts  []DashboardWorkout
	Telemetry DayTelemetry
}

// AttributeMuscleGroups maps each exercise to its primary groups, or to all linked
// groups when none is primary.
func AttributeMuscleGroups(links []MuscleGroupLink) map[string][]string {
	all := make(map[string][]string)
	primary := make(map[string][]string)
	for _, link := range links {
		all[link.ExerciseID] = append(all[link.ExerciseID], link.MuscleGroupName)
		if link.IsPrimary {
			primary[link.ExerciseID] = append(primary[link.ExerciseID], link.MuscleGroupName)
		}
	}
	out := make(map[string][]string, len(all))
	for exerciseID, groups := range all {
		if p := primary[exerciseID]; len(p) > 0 {
			out[exerciseID] = p
			continue
		}
		out[exerciseID] = groups
	}
	return out
}

// AggregateDay shapes workouts and computes telemetry. Workouts are scanned in the
// order given and sets in set_index, id order; the first set with the highest load
// is the best set.
func AggregateDay(workouts []Workout, sets []StrengthSet, sessions []CardioSession, links []MuscleGroupLink, topK int) DayDashboard {
	attribution := AttributeMuscleGroups(links)

	setsByWorkout := make(map[string][]StrengthSet)
	for _, set := range sets {
		setsByWorkout[set.WorkoutID] = append(setsByWorkout[set.WorkoutID], set)
	}
	sessionByWorkout := make(map[string]CardioSession, len(sessions))
	for _, session := range sessions {
		sessionByWorkout[session.WorkoutID] = session
	}

	agg := newDayAccumulator()
	out := DayDashboard{Workouts: make([]DashboardWorkout, 0, len(workouts))}
	for _, workout := range workouts {
		item := DashboardWorkout{Workout: workout, StrengthSets: []DashboardSet{}}
		switch workout.Type {
		case ModalityStrength:
			ordered := setsByWorkout[workout.ID]
			sortSets(ordered)
			for _, set := range ordered {
				groups := attribution[set.ExerciseID]
				if groups == nil {
					groups = []string{}
				}
				item.StrengthSets = append(item.StrengthSets, DashboardSet{StrengthSet: set, MuscleGroups: groups})
				agg.addSet(set, groups)
			}
		case ModalityCardio:
			if session, ok := sessionByWorkout[workout.ID]; ok {
				item.CardioSession = &session
				agg.addCardio(session)
			}
		}
		out.Workouts = append(out.Workouts, item)
	}

	out.Telemetry = agg.telemetry(topK)
	return out
}

type dayAccumulator struct {
	totalLoad     float64
	bestLoad      *float64
	bestExercise  *string
	maxWeight     map[string]float64
	exerciseOrder []string
	groupLoad     map[string]float64
	groupOrder    []string
	distance      float64
	duration      int
	hasDuration   bool
}

func newDayAccumulator() *dayAccumulator {
	return &dayAccumulator{
		maxWeight: make(map[string]float64),
		groupLoad: make(map[string]float64),
	}
}

func (a *dayAccumulator) addSet(set StrengthSet, groups []string) {
	if set.Weight != nil {
		current, seen := a.maxWeight[set.ExerciseName]
		if !seen {
			a.exerciseOrder = append(a.exerciseOrder, set.ExerciseName)
		}
		if !seen || *set.Weight > current {
			a.maxWeight[set.ExerciseName] = *set.Weight
		}
	}

	load, ok := set.Load()
	if !ok {
		return
	}
	a.totalLoad += load
	if a.bestLoad == nil || load > *a.bestLoad {
		best, name := load, set.ExerciseName
		a.bestLoad, a.bestExercise = &best, &name
	}
	for _, group := range groups {
		if _, seen := a.groupLoad[group]; !seen {
			a.groupOrder = append(a.groupOrder, group)
		}
		a.groupLoad[group] += load
	}
}

func (a *dayAccumulator) addCardio(session CardioSession) {
	if session.DistanceMiles != nil {
		a.distance += *session.DistanceMiles
	}
	if session.DurationSeconds != nil {
		a.duration += *session.DurationSeconds
		a.hasDuration = true
	}
}

func (a *dayAccumulator) telemetry(topK int) DayTelemetry {
	weights := make([]ExerciseMaxWeight, 0, len(a.exerciseOrder))
	for _, name := range a.exerciseOrder {
		weights = append(weights, ExerciseMaxWeight{ExerciseName: name, MaxWeight: a.maxWeight[name]})
	}
	sort.SliceStable(weights, func(i, j int) bool { return weights[i].MaxWeight > weights[j].MaxWeight })
	if topK >= 0 && len(weights) > topK {
		weights = weights[:topK]
	}

	groups := make([]MuscleGroupLoad, 0, len(a.groupOrder))
	for _, name := range a.groupOrder {
		groups = append(groups, MuscleGroupLoad{MuscleGroup: name, Load: a.groupLoad[name]})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Load > groups[j].Load })

	totals := CardioTotals{TotalDistanceMiles: a.distance}
	if a.hasDuration {
		duration := a.duration
		totals.TotalDurationSeconds = &duration
	}

	return DayTelemetry{
		TotalTrainingLoad:       a.totalLoad,
		BestSetLoad:             a.bestLoad,
		BestSetExerciseName:     a.bestExercise,
		MaxWeightPerExercise:    weights,
		MuscleGroupTrainingLoad: groups,
		CardioTotals:            totals,
	}
}

func sortSets(sets []StrengthSet) {
	sort.SliceStable(sets, func(i, j int) bool {
		if sets[i].SetIndex != sets[j].SetIndex {
			return sets[i].SetIndex < sets[j].SetIndex
		}
		return sets[i].ID < sets[j].ID
	})
}
