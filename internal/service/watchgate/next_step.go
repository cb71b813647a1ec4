package watchgate

import (
	"fmt"

	"github.com/yourusername/training-api/internal/domain/entity"
)

// Step: действие после просмотра видео
type Step string

const (
	StepKeepWatching Step = "keep_watching"
	StepExam         Step = "exam"
	StepNextVideo    Step = "next_video"
	StepFinish       Step = "finish"
)

// StepInput описывает состояние пользователя по текущему видео
type StepInput struct {
	Watched     bool
	ExamID      *uint
	ExamPassed  bool
	NextVideoID *uint
}

// Decision: выбранный шаг и его цель
type Decision struct {
	Step    Step  `json:"step"`
	ExamID  *uint `json:"exam_id,omitempty"`
	VideoID *uint `json:"video_id,omitempty"`
}

// NextStep выбирает действие после видео.
// До порога нужно досмотреть. Если экзамен видео не сдан, следующий шаг экзамен, иначе следующее видео или завершение.
func NextStep(in StepInput) Decision {
	if !in.Watched {
		return Decision{Step: StepKeepWatching}
	}
	if in.ExamID != nil && !in.ExamPassed {
		return Decision{Step: StepExam, ExamID: in.ExamID}
	}
	if in.NextVideoID != nil {
		return Decision{Step: StepNextVideo, VideoID: in.NextVideoID}
	}
	return Decision{Step: StepFinish}
}

// NextVideo возвращает видео, идущее после currentID в упорядоченном списке
// (порядок модулей, затем порядок видео внутри модуля), или nil для последнего.
func NextVideo(ordered []entity.Video, currentID uint) *entity.Video {
	for i := range ordered {
		if ordered[i].ID == currentID {
			if i+1 < len(ordered) {
				return &ordered[i+1]
			}
			return nil
		}
	}
	return nil
}

// FormatDuration форматирует длительность в секундах: "2 dk 5 sn", "2 dk"
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	s := fmt.Sprintf("%d dk", seconds/60)
	if rem := seconds % 60; rem > 0 {
		s += fmt.Sprintf(" %d sn", rem)
	}
	return s
}
